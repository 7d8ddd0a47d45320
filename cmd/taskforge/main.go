// Command taskforge turns a goal into a dependency-ordered set of role
// tasks and runs them through a bounded-concurrency queue.
package main

func main() {
	Execute()
}
