// Package assistant maps classified intents to actions and orchestrates the
// classify-dispatch-record cycle for a turn. Handler failures never escape:
// every branch degrades to an apologetic response string.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/scrypster/ashley/internal/collab/alarm"
	"github.com/scrypster/ashley/internal/collab/search"
	"github.com/scrypster/ashley/internal/collab/weather"
	"github.com/scrypster/ashley/internal/storage"
	"github.com/scrypster/ashley/pkg/types"
)

// Searcher opens a search result for a query. Satisfied by *search.Client.
type Searcher interface {
	Search(ctx context.Context, engine search.Engine, query string) error
}

// WeatherService fetches current conditions. Satisfied by *weather.Client.
type WeatherService interface {
	Current(ctx context.Context, city string) (*weather.Observation, error)
	LocateCity(ctx context.Context) string
}

// AppController opens and closes applications. Satisfied by
// *appctl.Controller.
type AppController interface {
	Open(ctx context.Context, name string) error
	Close(ctx context.Context, name string) error
}

// AlarmService manages scheduled alarms. Satisfied by *alarm.Store.
type AlarmService interface {
	Create(ctx context.Context, label string, fireAt time.Time) (*alarm.Alarm, error)
	Upcoming(ctx context.Context) ([]alarm.Alarm, error)
	Cancel(ctx context.Context, identifier string) (*alarm.Alarm, error)
}

// Fallback answers queries no handler covers. Satisfied by *rag.Answerer.
type Fallback interface {
	Answer(ctx context.Context, query string) string
}

// VolumeController adjusts system audio. Best effort; implementations may
// return an error on unsupported platforms.
type VolumeController interface {
	Up(ctx context.Context) error
	Down(ctx context.Context) error
	Mute(ctx context.Context) error
	Unmute(ctx context.Context) error
}

// Time and date formats used in spoken responses (12-hour clock).
const (
	clockFormat   = "03:04 PM"
	dateFormat    = "Monday, January 02, 2006"
	alarmAtFormat = "Monday, January 02 at 03:04 PM"
)

// Apologies reused across handlers.
const (
	apologyNoIdea  = "I couldn't find an answer to that."
	apologyWeather = "I couldn't get the weather information right now. Please try again later."
)

// Deps are the collaborators a Dispatcher delegates side effects to. Any of
// them may be nil; the corresponding intents then degrade to an apology.
type Deps struct {
	Search        Searcher
	Weather       WeatherService
	Apps          AppController
	Alarms        AlarmService
	Volume        VolumeController
	Fallback      Fallback
	AssistantName string
	Now           func() time.Time
	Logger        *log.Logger
}

// Dispatcher is a total mapping from the intent vocabulary to handlers.
// Exactly one branch executes per Dispatch call; unknown (or unmapped)
// intents fall to the generative fallback.
type Dispatcher struct {
	deps Deps
}

// NewDispatcher builds a dispatcher over the given collaborators.
func NewDispatcher(deps Deps) *Dispatcher {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.AssistantName == "" {
		deps.AssistantName = "Ashley"
	}
	return &Dispatcher{deps: deps}
}

// Request carries one resolved turn into the dispatcher.
type Request struct {
	Intent       types.Intent
	RawText      string
	Entities     types.EntityMap
	LastResponse string // previous response for this session, for "repeat"
}

// Dispatch executes the handler for the request's intent and returns the
// user-facing response plus a success flag. Errors are swallowed and logged;
// a panicking handler aborts the turn gracefully.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (response string, success bool) {
	defer func() {
		if r := recover(); r != nil {
			d.deps.Logger.Printf("dispatch: handler for %q panicked: %v", req.Intent, r)
			response, success = "I encountered an error. Let me try to continue.", false
		}
	}()

	switch req.Intent {
	case types.IntentGreet, types.IntentSmalltalkHello:
		return d.greet(), true

	case types.IntentExit:
		return "Alright, have a great day! I'm just a call away.", true

	case types.IntentGetName:
		return fmt.Sprintf("I'm %s, your AI assistant.", d.deps.AssistantName), true

	case types.IntentGetSkills:
		return "I can help you with weather, search, alarms, app control, and much more. Just ask!", true

	case types.IntentGetAge:
		return "I am a computer program, so I don't have an age.", true

	case types.IntentSmalltalkHowAreYou:
		return "I'm doing great, thank you for asking! How can I help you today?", true

	case types.IntentSmalltalkOK:
		return "That's wonderful to hear! How can I assist you today?", true

	case types.IntentThanks:
		return "You're very welcome! Is there anything else I can help you with?", true

	case types.IntentCompliment:
		return "Thank you so much! That's very kind of you to say.", true

	case types.IntentSearchGoogle, types.IntentGeneralSearch:
		return d.search(ctx, search.Google, req, "I couldn't search for that.")

	case types.IntentSearchYouTube:
		return d.search(ctx, search.YouTube, req, "I couldn't search YouTube.")

	case types.IntentSearchWikipedia:
		return d.search(ctx, search.Wikipedia, req, "I couldn't search Wikipedia.")

	case types.IntentGetTime:
		return fmt.Sprintf("Sir, the time is %s", d.deps.Now().Format(clockFormat)), true

	case types.IntentGetDate:
		return fmt.Sprintf("Today is %s", d.deps.Now().Format(dateFormat)), true

	case types.IntentGetDateTime:
		now := d.deps.Now()
		return fmt.Sprintf("Sir, today is %s and the time is %s",
			now.Format(dateFormat), now.Format(clockFormat)), true

	case types.IntentTemperature:
		return d.temperature(ctx, req)

	case types.IntentWeather, types.IntentWeatherExtended:
		return d.weather(ctx, req)

	case types.IntentOpenApp:
		return d.openApp(ctx, req)

	case types.IntentCloseApp:
		return d.closeApp(ctx, req)

	case types.IntentSetAlarm:
		return d.setAlarm(ctx, req)

	case types.IntentListAlarms:
		return d.listAlarms(ctx)

	case types.IntentCancelAlarm:
		return d.cancelAlarm(ctx, req)

	case types.IntentVolumeUp:
		return d.volume(ctx, "up")

	case types.IntentVolumeDown:
		return d.volume(ctx, "down")

	case types.IntentMute:
		return d.volume(ctx, "mute")

	case types.IntentUnmute:
		return d.volume(ctx, "unmute")

	case types.IntentHelp:
		return "I can help you with weather, search the web, set alarms, control apps, tell time, and much more. Just ask me anything!", true

	case types.IntentRepeat:
		if req.LastResponse != "" {
			return fmt.Sprintf("I said: %s", req.LastResponse), true
		}
		return "I don't have anything to repeat yet.", true

	case types.IntentConfirmYes:
		return "Alright.", true

	case types.IntentConfirmNo:
		return "Okay, never mind.", true

	default:
		// unknown and any future tags without a handler
		return d.fallback(ctx, req.RawText)
	}
}

func (d *Dispatcher) greet() string {
	switch hour := d.deps.Now().Hour(); {
	case hour < 12:
		return "Good morning, sir. Welcome back. How can I help you today?"
	case hour < 18:
		return "Good afternoon, sir. Welcome back. How can I help you today?"
	default:
		return "Good evening, sir. Welcome back. How can I help you today?"
	}
}

func (d *Dispatcher) search(ctx context.Context, engine search.Engine, req Request, apology string) (string, bool) {
	query := req.Entities.First(types.EntitySearchQuery, req.RawText)
	if d.deps.Search == nil {
		return apology, false
	}
	if err := d.deps.Search.Search(ctx, engine, query); err != nil {
		d.deps.Logger.Printf("dispatch: %s search failed: %v", engine, err)
		return apology, false
	}
	return fmt.Sprintf("Searching %s", query), true
}

// city resolves the city for a weather request: explicit "in <city>" phrase,
// then an extracted location entity, then IP geolocation.
func (d *Dispatcher) city(ctx context.Context, req Request) string {
	if city := weather.ExtractCity(req.RawText); city != "" {
		return city
	}
	if city := req.Entities.First(types.EntityLocation, ""); city != "" {
		return city
	}
	return d.deps.Weather.LocateCity(ctx)
}

func (d *Dispatcher) temperature(ctx context.Context, req Request) (string, bool) {
	if d.deps.Weather == nil {
		return apologyWeather, false
	}
	obs, err := d.deps.Weather.Current(ctx, d.city(ctx, req))
	if err != nil {
		d.deps.Logger.Printf("dispatch: temperature lookup failed: %v", err)
		return apologyWeather, false
	}
	return fmt.Sprintf("The current temperature in %s is %.1f degrees Celsius. It feels like %.1f degrees.",
		obs.City, obs.Temperature, obs.FeelsLike), true
}

func (d *Dispatcher) weather(ctx context.Context, req Request) (string, bool) {
	if d.deps.Weather == nil {
		return apologyWeather, false
	}
	obs, err := d.deps.Weather.Current(ctx, d.city(ctx, req))
	if err != nil {
		d.deps.Logger.Printf("dispatch: weather lookup failed: %v", err)
		return apologyWeather, false
	}
	return fmt.Sprintf("The weather in %s is currently %s, with humidity at %d percent and wind speed at %.1f meters per second.",
		obs.City, obs.Description, obs.Humidity, obs.WindSpeed), true
}

func (d *Dispatcher) openApp(ctx context.Context, req Request) (string, bool) {
	name := req.Entities.First(types.EntityAppName, req.RawText)
	if d.deps.Apps == nil {
		return fmt.Sprintf("Sorry, I couldn't find or open %s. It might not be installed or accessible.", name), false
	}
	if err := d.deps.Apps.Open(ctx, name); err != nil {
		d.deps.Logger.Printf("dispatch: failed to open %q: %v", name, err)
		return fmt.Sprintf("Sorry, I couldn't find or open %s. It might not be installed or accessible.", name), false
	}
	return fmt.Sprintf("Opening %s", name), true
}

func (d *Dispatcher) closeApp(ctx context.Context, req Request) (string, bool) {
	name := req.Entities.First(types.EntityAppName, req.RawText)
	if d.deps.Apps == nil {
		return fmt.Sprintf("Sorry, there was an error closing %s", name), false
	}
	if err := d.deps.Apps.Close(ctx, name); err != nil {
		d.deps.Logger.Printf("dispatch: failed to close %q: %v", name, err)
		return fmt.Sprintf("Sorry, there was an error closing %s", name), false
	}
	return fmt.Sprintf("Closing %s", name), true
}

func (d *Dispatcher) setAlarm(ctx context.Context, req Request) (string, bool) {
	if d.deps.Alarms == nil {
		return "Failed to create alarm. Please try again.", false
	}
	fireAt, err := alarm.ParseTimePhrase(req.RawText, d.deps.Now())
	switch {
	case errors.Is(err, alarm.ErrPastTime):
		return "That time is in the past. Please specify a future time.", false
	case errors.Is(err, alarm.ErrUnparsable):
		return "I couldn't understand the time. Try saying 'tomorrow at 10 AM' or 'in 30 minutes'.", false
	case err != nil:
		d.deps.Logger.Printf("dispatch: alarm parse failed: %v", err)
		return "Failed to create alarm. Please try again.", false
	}

	created, err := d.deps.Alarms.Create(ctx, "Alarm", fireAt)
	if err != nil {
		d.deps.Logger.Printf("dispatch: alarm create failed: %v", err)
		return "Failed to create alarm. Please try again.", false
	}
	return fmt.Sprintf("Alarm '%s' set for %s", created.Label, created.FireAt.Format(alarmAtFormat)), true
}

func (d *Dispatcher) listAlarms(ctx context.Context) (string, bool) {
	if d.deps.Alarms == nil {
		return "I couldn't list your alarms.", false
	}
	alarms, err := d.deps.Alarms.Upcoming(ctx)
	if err != nil {
		d.deps.Logger.Printf("dispatch: alarm list failed: %v", err)
		return "I couldn't list your alarms.", false
	}
	if len(alarms) == 0 {
		return "You have no upcoming alarms.", true
	}

	var b strings.Builder
	plural := ""
	if len(alarms) > 1 {
		plural = "s"
	}
	fmt.Fprintf(&b, "You have %d upcoming alarm%s.", len(alarms), plural)
	for i, a := range alarms {
		fmt.Fprintf(&b, " Alarm %d: %s on %s.", i+1, a.Label, a.FireAt.Format(alarmAtFormat))
	}
	return b.String(), true
}

// cancelFiller strips intent phrasing from a cancel request so the remainder
// can match an alarm label or list position.
var cancelFiller = map[string]bool{
	"cancel": true, "delete": true, "remove": true, "alarm": true,
	"the": true, "my": true, "an": true, "please": true, "number": true,
}

func cancelIdentifier(raw string) string {
	var kept []string
	for _, w := range strings.Fields(strings.ToLower(raw)) {
		if !cancelFiller[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func (d *Dispatcher) cancelAlarm(ctx context.Context, req Request) (string, bool) {
	if d.deps.Alarms == nil {
		return "I couldn't cancel that alarm.", false
	}
	identifier := cancelIdentifier(req.RawText)
	cancelled, err := d.deps.Alarms.Cancel(ctx, identifier)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Sprintf("No alarm found matching '%s'.", identifier), false
	case err != nil:
		d.deps.Logger.Printf("dispatch: alarm cancel failed: %v", err)
		return "I couldn't cancel that alarm.", false
	}
	return fmt.Sprintf("Alarm '%s' has been cancelled.", cancelled.Label), true
}

func (d *Dispatcher) volume(ctx context.Context, action string) (string, bool) {
	if d.deps.Volume == nil {
		return "I can't control the volume on this system.", false
	}
	var err error
	var confirmation string
	switch action {
	case "up":
		err, confirmation = d.deps.Volume.Up(ctx), "Volume up."
	case "down":
		err, confirmation = d.deps.Volume.Down(ctx), "Volume down."
	case "mute":
		err, confirmation = d.deps.Volume.Mute(ctx), "Muted."
	default:
		err, confirmation = d.deps.Volume.Unmute(ctx), "Sound on."
	}
	if err != nil {
		d.deps.Logger.Printf("dispatch: volume %s failed: %v", action, err)
		return "I couldn't change the volume.", false
	}
	return confirmation, true
}

func (d *Dispatcher) fallback(ctx context.Context, query string) (string, bool) {
	if d.deps.Fallback == nil {
		return apologyNoIdea, false
	}
	answer := d.deps.Fallback.Answer(ctx, query)
	if answer == "" {
		return apologyNoIdea, false
	}
	return answer, true
}
