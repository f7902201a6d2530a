// Command skillflow serves and drives the SkillFlow roadmap and lesson generators.
package main

func main() {
	Execute()
}
