// Copyright (c) 2026 Seatmaster Team
// Seatmaster - restaurant table reservation tool
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the command-line interface for Seatmaster using Cobra.
// It loads configuration, wires the store, the remote client and the core
// services, and provides commands that delegate to them. CLI code should
// remain thin and leave business logic to `core`.
package cli
