package enhancer

// EmotionalElement is a beat that can be layered onto a scene whose text
// contains one of its trigger words.
type EmotionalElement struct {
	Name         string
	Description  string
	Intensity    int // 1-10
	TriggerWords []string
}

// PlotTwist is a twist pattern that fits a story when its setup elements
// recur across scenes.
type PlotTwist struct {
	Name           string
	Description    string
	Impact         int // 1-10
	SetupElements  []string
	PayoffElements []string
}

var EmotionalElements = []EmotionalElement{
	{
		Name:         "unexpected_kindness",
		Description:  "A sudden act of kindness from an unexpected source",
		Intensity:    8,
		TriggerWords: []string{"alone", "struggle", "difficult", "help"},
	},
	{
		Name:         "redemption",
		Description:  "A character overcomes their past mistakes",
		Intensity:    9,
		TriggerWords: []string{"mistake", "regret", "change", "better"},
	},
	{
		Name:         "sacrifice",
		Description:  "Someone gives up something important for others",
		Intensity:    10,
		TriggerWords: []string{"important", "give up", "others", "save"},
	},
	{
		Name:         "revelation",
		Description:  "A surprising truth is revealed that changes everything",
		Intensity:    9,
		TriggerWords: []string{"truth", "discover", "realize", "secret"},
	},
}

var PlotTwists = []PlotTwist{
	{
		Name:           "hidden_connection",
		Description:    "Characters discover they're connected in unexpected ways",
		Impact:         8,
		SetupElements:  []string{"mysterious past", "coincidence", "shared history"},
		PayoffElements: []string{"revelation", "emotional reunion", "changed relationship"},
	},
	{
		Name:           "moral_gray_area",
		Description:    "The clear distinction between right and wrong becomes blurred",
		Impact:         9,
		SetupElements:  []string{"ethical dilemma", "difficult choice", "conflicting loyalties"},
		PayoffElements: []string{"complex decision", "unexpected consequences", "character growth"},
	},
	{
		Name:           "time_revelation",
		Description:    "Events are not in the sequence they appear to be",
		Impact:         8,
		SetupElements:  []string{"mysterious timeline", "inconsistent memories", "déjà vu"},
		PayoffElements: []string{"timeline twist", "memory revelation", "true sequence revealed"},
	},
	{
		Name:           "identity_subversion",
		Description:    "A character is not who they appear to be",
		Impact:         9,
		SetupElements:  []string{"subtle hints", "inconsistent behavior", "hidden agenda"},
		PayoffElements: []string{"true identity revealed", "motivation exposed", "relationships redefined"},
	},
}
