// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// The bridge client polls for engine readiness and enforces request
// deadlines; the round calculator and orchestrators read the current
// time. All of them take a Clock instead of calling the time package
// so tests can drive timeouts deterministically:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	client := bridge.New(transport, bridge.Options{Clock: fake})
//	future := client.Request(ctx, engine.OpVerify, params, time.Second)
//	fake.WaitForTimers(1)
//	fake.Advance(time.Second) // the request times out here
//
// WaitForTimers closes the race between a goroutine registering a
// deadline and the test advancing past it.
package clock
