// Package guest is the wasip1 side of the module/host boundary. It exposes
// linear memory as a wire.Memory, keeps every buffer it hands to the host
// alive until the host deallocates it, and implements capability.Host on
// top of the fot_graph, fot_metrics and fot_events imports.
//
// Everything except this file only builds for GOOS=wasip1.
package guest
