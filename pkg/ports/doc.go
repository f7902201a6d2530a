/*
Package ports defines the driven ports (interfaces) of the SkillFlow pipeline.

These interfaces decouple the feedback loops and the curriculum service from
concrete model providers, document stores and lock backends.

# Key Interfaces

  - RoadmapGenerator, RoadmapReviewer, LessonGenerator, LessonReviewer: the
    model capabilities driven by the feedback loops.
  - LessonPlanner, AnswerChecker: single-shot model capabilities.
  - CurriculumStore: persistence for roadmaps and lesson records.
  - RunLog: summaries of finished loop runs.
  - DistributedLocker: cross-replica locking for lesson generation.
*/
package ports
