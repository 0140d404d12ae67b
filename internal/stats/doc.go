// Package stats parses human-formatted statistic labels such as "1,340 MMT"
// or "$2.28/MMBtu" into a numeric core plus verbatim decoration, and drives
// count-up animations of that number.
//
// Animations are not tied to a real display: ticks come from a Scheduler,
// either a FrameScheduler backed by timers or a ManualScheduler advanced
// explicitly over a virtual clock.
package stats
