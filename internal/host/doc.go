// Package host runs an application built from mapped slices: it owns the
// state, dispatches actions, runs effects, renders the view and keeps
// subscriptions in sync with the state.
//
// Dispatch Loop:
// Dispatched actions go into a FIFO queue drained by a single goroutine at
// a time. Each step:
//  1. resolves the action against the current state
//  2. commits the resulting state
//  3. records the step (see Recorder)
//  4. runs the resulting effects in order; their dispatches are queued
//
// When the queue runs dry after a state change, the view is rendered and
// the subscription list diffed against the running one, so a subscription
// whose descriptor is unchanged keeps running.
//
// Termination:
// A drain stops with a QUOTA_EXCEEDED error after WithMaxSteps steps. The
// host adds no other guard: an action that keeps returning itself never
// terminates, and extract/merge functions are trusted.
package host
