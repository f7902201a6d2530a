/*
Package domain contains the core models of the SkillFlow content pipeline.

It defines the curriculum entities (Roadmap, Section, Concept, lessons and their
exercises) and the state threaded through the generator/reviewer feedback loops.
This package is kept free of I/O and persistence concerns; adapters translate
these types to and from their own wire or storage formats.

# Key Entities

  - Roadmap: A topic broken into ordered Sections, each holding Concepts.
  - LessonPlan / LessonRecord: A planned lesson and its persisted form.
  - Lesson: Generated lesson content with its ExerciseSet and learner summary.
  - LoopState: The Controller State of one feedback-loop run.
  - Review: The approval verdict returned by a reviewer.
*/
package domain
