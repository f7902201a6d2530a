/*
Package guard serialises work on a key, such as generating one lesson.

A Guard combines in-process keyed mutexes, which are reference counted so
idle keys are garbage collected, with an optional ports.DistributedLocker for
coordination across replicas.
*/
package guard
