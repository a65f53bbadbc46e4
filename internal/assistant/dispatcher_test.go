package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/ashley/internal/collab/alarm"
	"github.com/scrypster/ashley/internal/collab/search"
	"github.com/scrypster/ashley/internal/collab/weather"
	"github.com/scrypster/ashley/internal/storage"
	"github.com/scrypster/ashley/pkg/types"
)

// dispatchNow is the fixed clock for dispatcher tests: 2025-06-15 15:04 local.
var dispatchNow = time.Date(2025, 6, 15, 15, 4, 0, 0, time.Local)

type fakeSearcher struct {
	engine search.Engine
	query  string
	err    error
}

func (f *fakeSearcher) Search(_ context.Context, engine search.Engine, query string) error {
	f.engine, f.query = engine, query
	return f.err
}

type fakeWeather struct {
	obs  *weather.Observation
	err  error
	city string
}

func (f *fakeWeather) Current(_ context.Context, city string) (*weather.Observation, error) {
	f.city = city
	return f.obs, f.err
}

func (f *fakeWeather) LocateCity(context.Context) string { return "Kolkata" }

type fakeApps struct {
	opened, closed string
	err            error
}

func (f *fakeApps) Open(_ context.Context, name string) error {
	f.opened = name
	return f.err
}

func (f *fakeApps) Close(_ context.Context, name string) error {
	f.closed = name
	return f.err
}

type fakeAlarms struct {
	created   *alarm.Alarm
	upcoming  []alarm.Alarm
	cancelled *alarm.Alarm
	err       error
}

func (f *fakeAlarms) Create(_ context.Context, label string, fireAt time.Time) (*alarm.Alarm, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &alarm.Alarm{ID: "a1", Label: label, FireAt: fireAt}
	return f.created, nil
}

func (f *fakeAlarms) Upcoming(context.Context) ([]alarm.Alarm, error) {
	return f.upcoming, f.err
}

func (f *fakeAlarms) Cancel(_ context.Context, identifier string) (*alarm.Alarm, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.cancelled = &alarm.Alarm{ID: "a1", Label: identifier}
	return f.cancelled, nil
}

type fakeFallback struct {
	answer string
	asked  string
}

func (f *fakeFallback) Answer(_ context.Context, query string) string {
	f.asked = query
	return f.answer
}

func newTestDispatcher(deps Deps) *Dispatcher {
	if deps.Now == nil {
		deps.Now = func() time.Time { return dispatchNow }
	}
	return NewDispatcher(deps)
}

func TestDispatchTimeAndDate(t *testing.T) {
	d := newTestDispatcher(Deps{})

	got, ok := d.Dispatch(context.Background(), Request{Intent: types.IntentGetTime})
	assert.True(t, ok)
	assert.Equal(t, "Sir, the time is 03:04 PM", got)

	got, ok = d.Dispatch(context.Background(), Request{Intent: types.IntentGetDate})
	assert.True(t, ok)
	assert.Equal(t, "Today is Sunday, June 15, 2025", got)

	got, ok = d.Dispatch(context.Background(), Request{Intent: types.IntentGetDateTime})
	assert.True(t, ok)
	assert.Equal(t, "Sir, today is Sunday, June 15, 2025 and the time is 03:04 PM", got)
}

func TestDispatchOpenAppUsesEntity(t *testing.T) {
	apps := &fakeApps{}
	d := newTestDispatcher(Deps{Apps: apps})

	got, ok := d.Dispatch(context.Background(), Request{
		Intent:   types.IntentOpenApp,
		RawText:  "open chrome",
		Entities: types.EntityMap{types.EntityAppName: {"chrome"}},
	})
	assert.True(t, ok)
	assert.Equal(t, "Opening chrome", got)
	assert.Equal(t, "chrome", apps.opened)
}

func TestDispatchOpenAppFailureApologizes(t *testing.T) {
	apps := &fakeApps{err: errors.New("no such app")}
	d := newTestDispatcher(Deps{Apps: apps})

	got, ok := d.Dispatch(context.Background(), Request{
		Intent:   types.IntentOpenApp,
		RawText:  "open zzzz",
		Entities: types.EntityMap{types.EntityAppName: {"zzzz"}},
	})
	assert.False(t, ok)
	assert.Contains(t, got, "couldn't find or open zzzz")
}

func TestDispatchSearchPrefersEntityFallsBackToRaw(t *testing.T) {
	s := &fakeSearcher{}
	d := newTestDispatcher(Deps{Search: s})

	got, ok := d.Dispatch(context.Background(), Request{
		Intent:   types.IntentSearchYouTube,
		RawText:  "search youtube for lo-fi beats",
		Entities: types.EntityMap{types.EntitySearchQuery: {"lo-fi beats"}},
	})
	assert.True(t, ok)
	assert.Equal(t, "Searching lo-fi beats", got)
	assert.Equal(t, search.YouTube, s.engine)
	assert.Equal(t, "lo-fi beats", s.query)

	_, _ = d.Dispatch(context.Background(), Request{
		Intent:  types.IntentSearchGoogle,
		RawText: "golang generics",
	})
	assert.Equal(t, search.Google, s.engine)
	assert.Equal(t, "golang generics", s.query)
}

func TestDispatchSearchFailure(t *testing.T) {
	s := &fakeSearcher{err: errors.New("browser missing")}
	d := newTestDispatcher(Deps{Search: s})

	got, ok := d.Dispatch(context.Background(), Request{
		Intent:  types.IntentSearchGoogle,
		RawText: "anything",
	})
	assert.False(t, ok)
	assert.Equal(t, "I couldn't search for that.", got)
}

func TestDispatchWeatherFromExtractedCity(t *testing.T) {
	w := &fakeWeather{obs: &weather.Observation{
		City: "London", Temperature: 18.3, FeelsLike: 17.1,
		Description: "Light rain", Humidity: 82, WindSpeed: 4.2,
	}}
	d := newTestDispatcher(Deps{Weather: w})

	got, ok := d.Dispatch(context.Background(), Request{
		Intent:  types.IntentWeather,
		RawText: "what is the weather in london",
	})
	assert.True(t, ok)
	assert.Equal(t, "London", w.city)
	assert.Contains(t, got, "The weather in London is currently Light rain")
	assert.Contains(t, got, "humidity at 82 percent")

	got, ok = d.Dispatch(context.Background(), Request{
		Intent:  types.IntentTemperature,
		RawText: "how hot is it in london",
	})
	assert.True(t, ok)
	assert.Contains(t, got, "temperature in London is 18.3 degrees Celsius")
	assert.Contains(t, got, "feels like 17.1 degrees")
}

func TestDispatchWeatherLocatesCityWhenAbsent(t *testing.T) {
	w := &fakeWeather{err: errors.New("api down")}
	d := newTestDispatcher(Deps{Weather: w})

	got, ok := d.Dispatch(context.Background(), Request{
		Intent:  types.IntentWeather,
		RawText: "what is the weather like",
	})
	assert.False(t, ok)
	assert.Equal(t, "Kolkata", w.city)
	assert.Equal(t, apologyWeather, got)
}

func TestDispatchSetAlarmRelative(t *testing.T) {
	alarms := &fakeAlarms{}
	d := newTestDispatcher(Deps{Alarms: alarms})

	got, ok := d.Dispatch(context.Background(), Request{
		Intent:  types.IntentSetAlarm,
		RawText: "set an alarm in 30 minutes",
	})
	assert.True(t, ok)
	require.NotNil(t, alarms.created)
	assert.Equal(t, dispatchNow.Add(30*time.Minute), alarms.created.FireAt)
	assert.Contains(t, got, "Alarm 'Alarm' set for")
}

func TestDispatchSetAlarmPastAndUnparsable(t *testing.T) {
	alarms := &fakeAlarms{}
	d := newTestDispatcher(Deps{Alarms: alarms})

	got, ok := d.Dispatch(context.Background(), Request{
		Intent:  types.IntentSetAlarm,
		RawText: "2020-01-01 9:00 am",
	})
	assert.False(t, ok)
	assert.Equal(t, "That time is in the past. Please specify a future time.", got)
	assert.Nil(t, alarms.created)

	got, ok = d.Dispatch(context.Background(), Request{
		Intent:  types.IntentSetAlarm,
		RawText: "set an alarm",
	})
	assert.False(t, ok)
	assert.Contains(t, got, "couldn't understand the time")
}

func TestDispatchListAlarms(t *testing.T) {
	alarms := &fakeAlarms{}
	d := newTestDispatcher(Deps{Alarms: alarms})

	got, ok := d.Dispatch(context.Background(), Request{Intent: types.IntentListAlarms})
	assert.True(t, ok)
	assert.Equal(t, "You have no upcoming alarms.", got)

	alarms.upcoming = []alarm.Alarm{
		{Label: "standup", FireAt: dispatchNow.Add(time.Hour)},
		{Label: "lunch", FireAt: dispatchNow.Add(2 * time.Hour)},
	}
	got, ok = d.Dispatch(context.Background(), Request{Intent: types.IntentListAlarms})
	assert.True(t, ok)
	assert.Contains(t, got, "You have 2 upcoming alarms.")
	assert.Contains(t, got, "Alarm 1: standup")
	assert.Contains(t, got, "Alarm 2: lunch")
}

func TestDispatchCancelAlarm(t *testing.T) {
	alarms := &fakeAlarms{}
	d := newTestDispatcher(Deps{Alarms: alarms})

	got, ok := d.Dispatch(context.Background(), Request{
		Intent:  types.IntentCancelAlarm,
		RawText: "cancel my workout alarm",
	})
	assert.True(t, ok)
	assert.Equal(t, "Alarm 'workout' has been cancelled.", got)

	alarms.err = storage.ErrNotFound
	got, ok = d.Dispatch(context.Background(), Request{
		Intent:  types.IntentCancelAlarm,
		RawText: "cancel the dentist alarm",
	})
	assert.False(t, ok)
	assert.Equal(t, "No alarm found matching 'dentist'.", got)
}

func TestCancelIdentifierStripsFiller(t *testing.T) {
	assert.Equal(t, "workout", cancelIdentifier("cancel my workout alarm"))
	assert.Equal(t, "2", cancelIdentifier("cancel alarm number 2"))
	assert.Equal(t, "", cancelIdentifier("cancel the alarm"))
}

func TestDispatchGetAge(t *testing.T) {
	d := newTestDispatcher(Deps{})

	got, ok := d.Dispatch(context.Background(), Request{
		Intent:  types.IntentGetAge,
		RawText: "how old are you",
	})
	assert.True(t, ok)
	assert.Equal(t, "I am a computer program, so I don't have an age.", got)
}

func TestDispatchFallback(t *testing.T) {
	fb := &fakeFallback{answer: "The capital of France is Paris."}
	d := newTestDispatcher(Deps{Fallback: fb})

	got, ok := d.Dispatch(context.Background(), Request{
		Intent:  types.IntentUnknown,
		RawText: "what is the capital of france",
	})
	assert.True(t, ok)
	assert.Equal(t, "The capital of France is Paris.", got)
	assert.Equal(t, "what is the capital of france", fb.asked)

	fb.answer = ""
	got, ok = d.Dispatch(context.Background(), Request{Intent: types.IntentUnknown, RawText: "anything"})
	assert.False(t, ok)
	assert.Equal(t, apologyNoIdea, got)
}

func TestDispatchFallbackWithoutGenerator(t *testing.T) {
	d := newTestDispatcher(Deps{})

	got, ok := d.Dispatch(context.Background(), Request{Intent: types.IntentUnknown, RawText: "anything"})
	assert.False(t, ok)
	assert.Equal(t, apologyNoIdea, got)
}

func TestDispatchRepeat(t *testing.T) {
	d := newTestDispatcher(Deps{})

	got, ok := d.Dispatch(context.Background(), Request{Intent: types.IntentRepeat})
	assert.True(t, ok)
	assert.Equal(t, "I don't have anything to repeat yet.", got)

	got, ok = d.Dispatch(context.Background(), Request{
		Intent:       types.IntentRepeat,
		LastResponse: "Sir, the time is 03:04 PM",
	})
	assert.True(t, ok)
	assert.Equal(t, "I said: Sir, the time is 03:04 PM", got)
}

func TestDispatchGreetingFollowsClock(t *testing.T) {
	at := func(hour int) *Dispatcher {
		return NewDispatcher(Deps{Now: func() time.Time {
			return time.Date(2025, 6, 15, hour, 0, 0, 0, time.Local)
		}})
	}

	got, _ := at(8).Dispatch(context.Background(), Request{Intent: types.IntentGreet})
	assert.Contains(t, got, "Good morning")
	got, _ = at(14).Dispatch(context.Background(), Request{Intent: types.IntentGreet})
	assert.Contains(t, got, "Good afternoon")
	got, _ = at(21).Dispatch(context.Background(), Request{Intent: types.IntentGreet})
	assert.Contains(t, got, "Good evening")
}

// Every catalog intent must produce a response, even with no collaborators
// wired: missing services degrade to apologies, never to empty strings, and
// no catalog intent leaks through to the generative fallback.
func TestDispatchTotalOverVocabulary(t *testing.T) {
	d := newTestDispatcher(Deps{})
	for _, intent := range types.DefaultIntentCatalog().Intents() {
		got, _ := d.Dispatch(context.Background(), Request{Intent: intent, RawText: "anything"})
		assert.NotEmpty(t, got, "intent %s returned an empty response", intent)
		assert.NotEqual(t, apologyNoIdea, got, "intent %s fell through to the fallback", intent)
	}
	got, _ := d.Dispatch(context.Background(), Request{Intent: types.IntentUnknown, RawText: "anything"})
	assert.Equal(t, apologyNoIdea, got)
}
