// Copyright 2026 The NFTGate Authors
// SPDX-License-Identifier: Apache-2.0

// Package gatekeeper enforces room gate policies.
//
// A Gatekeeper watches each configured room's timeline for membership
// changes and settings updates. When a user joins, the gatekeeper
// derives their XRPL account from the Matrix localpart, fetches their
// NFT holdings, and evaluates the room's condition tree. Users who
// fail the policy are kicked with the room's configured kick message.
//
// Enforcement fails closed at every step: users without an XRPL
// localpart, users whose holdings cannot be determined (Bithomp
// outage, rate limiting), and users failing the condition tree are
// all removed. Only two classes of members are exempt: the gatekeeper
// account itself and room admins (power level 100), because admins
// must be able to configure a room they do not yet qualify for.
//
// Besides reacting to joins, the gatekeeper re-sweeps the full member
// list when the room's settings change and, optionally, on a periodic
// interval, so members whose wallets emptied are eventually removed.
package gatekeeper
