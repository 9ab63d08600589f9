package catalog

// Difficulty is the coarse difficulty tag on chapters and projects.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// FlashCard is a single front/back study card.
type FlashCard struct {
	ID    int    `yaml:"id"`
	Front string `yaml:"front"`
	Back  string `yaml:"back"`
}

// Question is a multiple-choice quiz question.
type Question struct {
	ID      int      `yaml:"id"`
	Prompt  string   `yaml:"question"`
	Options []string `yaml:"options"`
	Answer  int      `yaml:"answer"` // index into Options
}

// CorrectOption returns the text of the correct option.
func (q Question) CorrectOption() string {
	if q.Answer < 0 || q.Answer >= len(q.Options) {
		return ""
	}
	return q.Options[q.Answer]
}

// Chapter groups flashcards and questions. Chapter IDs are 1-based and
// sequential; chapter N unlocks after chapter N-1 is completed.
type Chapter struct {
	ID          int         `yaml:"id"`
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Topic       string      `yaml:"topic,omitempty"`
	Difficulty  Difficulty  `yaml:"difficulty"`
	Flashcards  []FlashCard `yaml:"flashcards"`
	Questions   []Question  `yaml:"questions"`
}

// TopicName returns the chapter topic, falling back to its title.
func (c *Chapter) TopicName() string {
	if c.Topic != "" {
		return c.Topic
	}
	return c.Title
}

// Card returns the flashcard with the given ID, or nil.
func (c *Chapter) Card(id int) *FlashCard {
	for i := range c.Flashcards {
		if c.Flashcards[i].ID == id {
			return &c.Flashcards[i]
		}
	}
	return nil
}

// Question returns the question with the given ID, or nil.
func (c *Chapter) Question(id int) *Question {
	for i := range c.Questions {
		if c.Questions[i].ID == id {
			return &c.Questions[i]
		}
	}
	return nil
}

// Creature is a collectible obtained by hatching eggs.
type Creature struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Rarity      Rarity `yaml:"rarity"`
	Emoji       string `yaml:"emoji"`
	Description string `yaml:"description"`
}

// TestCase documents an expected behaviour of a project solution.
type TestCase struct {
	ID             int    `yaml:"id"`
	Input          string `yaml:"input"`
	ExpectedOutput string `yaml:"expected_output"`
	Description    string `yaml:"description"`
}

// Check is one structural rule a submission must satisfy. A check with
// several conditions passes only when all of them hold.
type Check struct {
	Description string   `yaml:"description"`
	All         []string `yaml:"all,omitempty"`     // every token must appear
	Any         []string `yaml:"any,omitempty"`     // at least one token must appear
	None        []string `yaml:"none,omitempty"`    // no token may appear
	Pattern     string   `yaml:"pattern,omitempty"` // regular expression that must match
}

// Project is a coding exercise validated by structural checks.
type Project struct {
	ID           int        `yaml:"id"`
	Title        string     `yaml:"title"`
	Description  string     `yaml:"description"`
	Difficulty   Difficulty `yaml:"difficulty"`
	Points       int        `yaml:"points"`
	Requirements []string   `yaml:"requirements"`
	TestCases    []TestCase `yaml:"test_cases"`
	StarterCode  string     `yaml:"starter_code"`
	Hints        []string   `yaml:"hints"`
	Checks       []Check    `yaml:"checks"`
}
