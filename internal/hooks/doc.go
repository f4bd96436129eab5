// Package hooks runs handlers around tool invocations and on lifecycle events.
//
// Supports before_tool, after_tool and event hooks. Built-in handlers block
// gated tools until every startup gate passes, escalate P0 incidents, warn on
// single-track drift after a cycle, and remind when the weekly cycle lapses.
package hooks
