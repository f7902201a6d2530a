package domain

// Step is the routing decision produced by the supervisor.
type Step int

const (
	StepGenerate Step = iota // Produce (or reproduce) the artifact
	StepReview               // Judge the latest artifact
	StepStop                 // Halt the loop
)

func (s Step) String() string {
	switch s {
	case StepGenerate:
		return "generate"
	case StepReview:
		return "review"
	case StepStop:
		return "stop"
	default:
		return "unknown"
	}
}

// LastStep records which step most recently mutated a LoopState.
type LastStep string

const (
	LastStepNone      LastStep = ""
	LastStepGenerated LastStep = "generated"
	LastStepReviewed  LastStep = "reviewed"
)

// LoopKind names a feedback-loop instantiation.
type LoopKind string

const (
	LoopRoadmap LoopKind = "roadmap"
	LoopLesson  LoopKind = "lesson"
)

// Role identifies the author of a transcript turn.
type Role string

const (
	RoleGenerator Role = "generator"
	RoleReviewer  Role = "reviewer"
)

// Turn is one entry of the conversation accumulated during a loop run.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Review is the verdict returned by a reviewer.
type Review struct {
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback"`
}

// Revision carries a rejected artifact and the feedback that rejected it
// into the next generation attempt.
type Revision[A any] struct {
	Prior    *A
	Feedback string
}

// LoopState is the Controller State of one feedback-loop run.
// A is the artifact type, C the read-only context supplied at loop start.
type LoopState[A, C any] struct {
	// Context holds the inputs of the run. It is never mutated by the loop.
	Context C `json:"context"`

	// Artifact is the latest generated candidate. Nil until the first generation.
	Artifact *A `json:"artifact,omitempty"`

	// Review is the latest verdict. Set only by the review step.
	Review *Review `json:"review,omitempty"`

	// Iteration counts generator invocations.
	Iteration int `json:"iteration"`

	// LastStep tells the supervisor whether Review predates the current Artifact.
	LastStep LastStep `json:"last_step"`

	// Transcript is the generator/reviewer conversation so far.
	Transcript []Turn `json:"transcript,omitempty"`
}

// NewLoopState creates a fresh state for a run over the given context.
func NewLoopState[A, C any](ctx C) *LoopState[A, C] {
	return &LoopState[A, C]{Context: ctx}
}

// Approved reports whether the latest review approved the artifact.
// A halted loop is not necessarily approved: the iteration ceiling can stop it first.
func (s *LoopState[A, C]) Approved() bool {
	return s.Review != nil && s.Review.Approved
}

// Clone returns a copy that can be mutated without affecting s.
// The artifact and context are shared; the loop only ever replaces them.
func (s *LoopState[A, C]) Clone() *LoopState[A, C] {
	if s == nil {
		return nil
	}
	next := *s
	if s.Review != nil {
		r := *s.Review
		next.Review = &r
	}
	next.Transcript = append([]Turn(nil), s.Transcript...)
	return &next
}

// RoadmapContext is the read-only input of a roadmap loop run.
type RoadmapContext struct {
	Topic string `json:"topic"`
}

// LessonContext is the read-only input of a lesson loop run.
type LessonContext struct {
	Roadmap        Roadmap  `json:"roadmap"`
	SectionTitle   string   `json:"section_title"`
	ConceptTitle   string   `json:"concept_title"`
	LessonTitle    string   `json:"lesson_title"`
	Objectives     []string `json:"objectives"`
	LearnedSummary string   `json:"learned_summary"`
	SiblingTitles  []string `json:"sibling_titles"`
}

// RoadmapState is the Controller State of a roadmap loop run.
type RoadmapState = LoopState[Roadmap, RoadmapContext]

// LessonState is the Controller State of a lesson loop run.
type LessonState = LoopState[Lesson, LessonContext]
