package types

// Intent is the classified purpose of an utterance.
type Intent string

// The fixed intent vocabulary. Anything the classifier cannot place in this
// set is reported as IntentUnknown and falls to the generative fallback.
const (
	IntentGreet     Intent = "greet"
	IntentExit      Intent = "exit"
	IntentGetName   Intent = "get_name"
	IntentGetAge    Intent = "get_age"
	IntentGetSkills Intent = "get_capabilities"

	IntentSmalltalkHello     Intent = "smalltalk_hello"
	IntentSmalltalkHowAreYou Intent = "smalltalk_howareyou"
	IntentSmalltalkOK        Intent = "smalltalk_ok"
	IntentThanks             Intent = "thanks"
	IntentCompliment         Intent = "compliment"

	IntentSearchGoogle    Intent = "search_google"
	IntentSearchYouTube   Intent = "search_youtube"
	IntentSearchWikipedia Intent = "search_wikipedia"
	IntentGeneralSearch   Intent = "general_search"

	IntentGetTime     Intent = "get_time"
	IntentGetDate     Intent = "get_date"
	IntentGetDateTime Intent = "get_datetime"

	IntentTemperature     Intent = "temperature"
	IntentWeather         Intent = "weather"
	IntentWeatherExtended Intent = "weather_extended"

	IntentOpenApp  Intent = "open_app"
	IntentCloseApp Intent = "close_app"

	IntentSetAlarm    Intent = "set_alarm"
	IntentListAlarms  Intent = "list_alarms"
	IntentCancelAlarm Intent = "cancel_alarm"

	IntentVolumeUp   Intent = "volume_up"
	IntentVolumeDown Intent = "volume_down"
	IntentMute       Intent = "mute"
	IntentUnmute     Intent = "unmute"

	IntentHelp       Intent = "help"
	IntentRepeat     Intent = "repeat"
	IntentConfirmYes Intent = "confirm_yes"
	IntentConfirmNo  Intent = "confirm_no"

	IntentUnknown Intent = "unknown"
)

// IntentCatalog is an ordered mapping from intent to its representative
// phrases. Loaded once at startup and immutable for the session.
type IntentCatalog struct {
	order    []Intent
	patterns map[Intent][]string
}

// NewIntentCatalog builds a catalog from ordered entries. Entries with an
// empty pattern set are rejected by the caller (see config.LoadCatalog).
func NewIntentCatalog(entries []CatalogEntry) *IntentCatalog {
	c := &IntentCatalog{patterns: make(map[Intent][]string, len(entries))}
	for _, e := range entries {
		if _, dup := c.patterns[e.Intent]; dup {
			continue
		}
		c.order = append(c.order, e.Intent)
		c.patterns[e.Intent] = e.Patterns
	}
	return c
}

// CatalogEntry pairs an intent with its phrase patterns.
type CatalogEntry struct {
	Intent   Intent   `yaml:"intent" json:"intent"`
	Patterns []string `yaml:"patterns" json:"patterns"`
}

// Intents returns the intent tags in catalog order.
func (c *IntentCatalog) Intents() []Intent {
	out := make([]Intent, len(c.order))
	copy(out, c.order)
	return out
}

// Patterns returns the phrase patterns for an intent, or nil when the intent
// is not in the catalog.
func (c *IntentCatalog) Patterns(intent Intent) []string {
	return c.patterns[intent]
}

// Labels returns the intent names as plain strings, for use as zero-shot
// candidate labels.
func (c *IntentCatalog) Labels() []string {
	out := make([]string, len(c.order))
	for i, in := range c.order {
		out[i] = string(in)
	}
	return out
}

// Len returns the number of intents in the catalog.
func (c *IntentCatalog) Len() int { return len(c.order) }

// DefaultIntentCatalog returns the built-in intent catalog. Each intent maps
// to the phrases users actually say for it; the classifier scores inputs
// against these with word overlap plus substring and similarity bonuses.
func DefaultIntentCatalog() *IntentCatalog {
	return NewIntentCatalog([]CatalogEntry{
		// Basic interaction
		{IntentGreet, []string{"wake up", "good morning", "good evening", "good afternoon", "greetings", "hello ashley"}},
		{IntentExit, []string{"exit", "quit", "shutdown", "terminate", "goodbye", "end session", "see you later", "that is all"}},

		// Identity
		{IntentGetName, []string{"your name", "who are you", "what is your name", "what do you call yourself"}},
		{IntentGetAge, []string{"your age", "how old are you", "what is your age", "when were you created"}},
		{IntentGetSkills, []string{"what can you do", "your abilities", "your capabilities", "what are you able to do"}},

		// Small talk
		{IntentSmalltalkHello, []string{"hello", "hi", "hello there", "hi there", "hey there", "hey"}},
		{IntentSmalltalkHowAreYou, []string{"how are you", "how r u", "how is it going", "what is up", "how are things", "how are you doing"}},
		{IntentSmalltalkOK, []string{"i am fine", "i am okay", "doing well", "i am good", "all good", "i am doing great"}},
		{IntentThanks, []string{"thank you", "thank", "thanks", "appreciate it", "thanks a ton"}},
		{IntentCompliment, []string{"you are amazing", "you are great", "well done", "good job", "you are awesome"}},

		// Search
		{IntentSearchGoogle, []string{"search google for", "look up on google", "google search", "find on google", "search for", "google"}},
		{IntentSearchYouTube, []string{"search youtube for", "open youtube for", "look up on youtube", "youtube search", "find videos about", "find on youtube"}},
		{IntentSearchWikipedia, []string{"search wikipedia for", "look up on wikipedia", "wikipedia search", "find on wiki", "wikipedia"}},
		{IntentGeneralSearch, []string{"look up", "find information about", "find out about", "search the web for"}},

		// Time and date
		{IntentGetTime, []string{"what time is it", "current time", "time now", "what is the time", "tell me the time"}},
		{IntentGetDate, []string{"what day is it", "today's date", "date now", "what is the date", "current date"}},
		{IntentGetDateTime, []string{"date and time", "time and date", "current date and time"}},

		// Weather
		{IntentTemperature, []string{"temperature", "what is the temperature", "how hot is it", "how cold is it", "current temp", "what is the temp"}},
		{IntentWeather, []string{"weather", "is it raining", "forecast", "humidity", "sunny", "will it rain", "weather today"}},
		{IntentWeatherExtended, []string{"weather in", "temperature in", "forecast for", "weather forecast in"}},

		// App control
		{IntentOpenApp, []string{"open", "launch", "start app", "run", "open the app", "start the application"}},
		{IntentCloseApp, []string{"close app", "exit app", "terminate app", "shut app", "kill the app", "stop the application", "close"}},

		// Alarms
		{IntentSetAlarm, []string{"set an alarm", "set alarm", "wake me up at", "remind me at", "create an alarm", "alarm for"}},
		{IntentListAlarms, []string{"list my alarms", "list alarms", "show alarms", "what alarms do i have", "upcoming alarms"}},
		{IntentCancelAlarm, []string{"cancel alarm", "delete alarm", "remove alarm", "cancel the alarm", "cancel my alarm"}},

		// Volume
		{IntentVolumeUp, []string{"volume up", "louder", "turn it up", "increase volume", "speak louder"}},
		{IntentVolumeDown, []string{"volume down", "quieter", "turn it down", "decrease volume", "speak softer"}},
		{IntentMute, []string{"mute", "be quiet", "silence", "stop talking"}},
		{IntentUnmute, []string{"unmute", "speak again", "sound on", "you can talk"}},

		// System
		{IntentHelp, []string{"help", "what can i say", "show commands", "how do i use you"}},
		{IntentRepeat, []string{"repeat that", "say that again", "repeat", "come again", "pardon"}},
		{IntentConfirmYes, []string{"yes", "yeah", "sure", "correct", "that is right", "go ahead"}},
		{IntentConfirmNo, []string{"no", "nope", "cancel that", "never mind", "forget it"}},
	})
}

// FollowUpTable maps an intent to the trigger phrases that, when present in
// an otherwise-unclassifiable follow-up utterance, carry the previous intent
// forward.
type FollowUpTable map[Intent][]string

// DefaultFollowUpTable returns the built-in follow-up trigger table.
func DefaultFollowUpTable() FollowUpTable {
	searchTriggers := []string{"more about", "tell me more", "what about", "show me more"}
	weatherTriggers := []string{"in another city", "what about", "and tomorrow", "how about"}
	return FollowUpTable{
		IntentSearchGoogle:    searchTriggers,
		IntentSearchYouTube:   searchTriggers,
		IntentSearchWikipedia: searchTriggers,
		IntentGeneralSearch:   searchTriggers,
		IntentWeather:         weatherTriggers,
		IntentWeatherExtended: weatherTriggers,
		IntentTemperature:     weatherTriggers,
		IntentSetAlarm:        {"different time", "change it to", "make it", "actually at"},
		IntentOpenApp:         {"close it", "another one"},
	}
}
