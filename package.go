// Package crew provides the core building blocks for a multi-agent
// orchestration backend: role-specialized agents that drive a hosted LLM
// through a Thought/Action/Observation loop, with session-scoped chat
// history and an optional lead-review pass.
//
// The root package holds the contracts and leaf components:
//
//   - [Model]: the text-completion capability the loop runs against.
//   - [Normalize]: forces heterogeneous completion payloads into a single
//     string before parsing.
//   - [Parser]: classifies a completion as a final answer or a tool
//     invocation request, per the configured [Markers].
//   - [Repairer]: best-effort recovery of structured tool input from
//     almost-JSON the model tends to emit.
//   - [Tool] and [Registry]: named string-in/string-out capabilities an
//     agent is allowed to invoke.
//
// The subpackages compose these into a working system:
//
//   - agent: the ReAct executor (agent.Loop) that iterates
//     prompt -> completion -> parse -> dispatch -> observation until a
//     final answer, an iteration cap, or a wall-clock budget.
//   - session: thread-safe, time-expiring store of chat histories.
//   - review: the lead reviewer pass producing a [Verdict].
//   - roles: role profiles (instructions, tool allow-list, budgets) as
//     YAML data rather than per-role code.
//   - models: LangChainGo-backed [Model] implementations.
//   - tools/fileops: the file-operation tool backend.
//   - server: the HTTP surface over sessions and agent runs.
//
// # Quick Start
//
//	model, err := models.NewVertex(ctx, cfg.Project, cfg.Location, cfg.ModelName)
//	if err != nil {
//	    log.Fatal(err) // fatal configuration error, fail fast
//	}
//
//	reg := crew.NewRegistry()
//	fileops.New(projectRoot).Register(reg)
//
//	loop := agent.New(model).
//	    WithName("developer").
//	    WithInstructions("You are a helpful AI developer assistant.").
//	    WithTools(reg).
//	    WithMaxIterations(15).
//	    WithBudget(5 * time.Minute)
//
//	result, err := loop.Run(ctx, "create a hello world script", history)
//	if err != nil {
//	    // only fatal/configuration errors reach here; everything
//	    // recoverable is fed back to the model as an observation
//	}
//	fmt.Println(result.Answer)
//
// Errors inside one iteration (a malformed tool input, an unknown tool
// name, a single bad completion) never cross the Run boundary: they become
// observation strings so the model can see its own mistake and correct it
// on the next iteration. Only [FatalError] values abort a run.
package crew
