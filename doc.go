/*
Package atelier is the backend of a browser-based 3D creation studio.

It owns the non-destructive edit timeline of every session (record, undo,
redo) and the two progress-reporting jobs a session can run: text or image
to 3D generation, and model export. Jobs are simulated: they advance by a
random step on every tick until they complete, hold briefly and go idle.

# Architecture

The package follows a hexagonal layout. pkg/domain holds the types, pkg/history
the timeline manager, pkg/progress the job simulators and pkg/ports the storage
contracts. Adapters (memory, file, redis, sqlite, http, mcp) live under
pkg/adapters. Studio is the facade tying them together.

# Usage

	studio := atelier.New()
	defer studio.Close()

	ctx := context.Background()
	doc, err := studio.Open(ctx, "session-123")
	if err != nil {
		log.Fatal(err)
	}

	studio.Record(ctx, doc.SessionID, domain.Smooth())
	studio.Record(ctx, doc.SessionID, domain.Subdivide())

	step, _ := studio.Undo(ctx, doc.SessionID)
	fmt.Println("undone:", step.Action.Kind)

	if err := studio.SetPrompt(ctx, doc.SessionID, "a chrome robot"); err != nil {
		log.Fatal(err)
	}
	_ = studio.StartTextTo3D(ctx, doc.SessionID)

# Persistence

Sessions live in memory unless a ports.DocumentStore is injected with
WithStore. Stores can be wrapped by pkg/persistence/middleware to encrypt
documents or mask prompts at rest.
*/
package atelier
