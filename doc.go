// Package toolserver provides a static tool registry and a dispatcher that executes tools by name
// and always answers with content, never with a transport failure.
//
// # Overview
//
// A Registry is built once from a fixed list of tools and lists them in declaration order. A Dispatcher
// looks a call up in the Registry, runs the tool under its timeout and returns a list of ContentItem.
//
// Pipeline: Go function + argument struct → NewTool (reflection + schema) → Tool → Registry →
// Dispatcher.Execute (decode, call, normalize) → []ContentItem.
//
// # Failure model
//
//   - Unknown tools, empty prompts and backend failures are rendered in-band as a text item with
//     IsError set. The transport reports success for them.
//   - A non-nil error from Execute (argument of the wrong type, recovered panic, shutdown) means the
//     response envelope cannot be built. The transport reports success=false with the error text.
//
// # Example
//
//	type Args struct { City string `json:"city" jsonschema:"City name"` }
//	tool, err := toolserver.NewTool("weather", "Get weather", func(_ context.Context, a Args) ([]toolserver.ContentItem, error) {
//	    return []toolserver.ContentItem{toolserver.TextContent("22.5 in " + a.City)}, nil
//	})
//	if err != nil { ... }
//	reg, err := toolserver.NewRegistry(tool)
//	if err != nil { ... }
//	d := toolserver.NewDispatcher(reg)
//	items, err := d.Execute(ctx, toolserver.ToolCall{ID: "1", ToolName: "weather", Args: toolserver.Arguments{"city": "Berlin"}})
package toolserver
