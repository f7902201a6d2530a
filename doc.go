/*
Package skillflow generates learning curricula with LLM feedback loops.

Given a topic, a Service drafts a roadmap (sections and concepts), has it
reviewed, and stores it together with the lesson plan of its first concept.
Lesson content and exercises are generated on demand through a second
generator/reviewer loop, and learner answers are checked against the lesson
they belong to.

Each loop is a small state machine: a pure supervisor decides whether to
generate, review or stop, and the driver runs exactly one capability per turn
until the supervisor halts it. The number of generations per run is capped
(one by default), so a run can halt with an unapproved artifact.

# Usage

	model := openai.NewModel(mainClient, checkerClient)
	svc, err := skillflow.New(model,
		skillflow.WithStore(store),
		skillflow.WithRoadmapMaxIterations(3),
	)
	if err != nil {
		log.Fatal(err)
	}

	res, err := svc.GenerateRoadmap(ctx, "Rust for Go developers")
	if err != nil {
		log.Fatal(err)
	}
	log.Println(res.Roadmap.ID, res.Approved)
*/
package skillflow
