// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scoring implements the analysis pipeline: model-name resolution,
// the outbound scoring call, and the orchestration that ties them to
// address validation and response assembly.
//
// The package is designed to be:
//   - Testable: dependencies are injected via constructors
//   - Stateless: nothing outlives a single request except the read-only
//     endpoint map held by the Registry
//   - Traceable: all methods accept context for distributed tracing
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/passport-analysis/services/analysis/datatypes"
)

// =============================================================================
// Registry
// =============================================================================

// Registry maps model names to their upstream endpoint URLs.
//
// The mapping is copied at construction and never mutated afterwards, so a
// single Registry is safe for concurrent use without locking. There is no
// ambient global; main constructs one Registry from configuration and
// injects it into the Analyzer.
type Registry struct {
	endpoints map[string]string
}

// NewRegistry creates a Registry from a model-name -> endpoint URL map.
//
// The input map is copied; later mutation by the caller has no effect on
// the Registry.
func NewRegistry(endpoints map[string]string) *Registry {
	copied := make(map[string]string, len(endpoints))
	for name, url := range endpoints {
		copied[name] = url
	}
	return &Registry{endpoints: copied}
}

// KnownModels returns the sorted list of model names this registry serves.
func (r *Registry) KnownModels() []string {
	names := make([]string, 0, len(r.endpoints))
	for name := range r.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve parses a raw comma-separated model list and resolves it to a
// single model name and its endpoint URL.
//
// # Description
//
// The list is split on commas and each element is whitespace-trimmed.
// Current policy allows exactly one model per request; requesting several
// is rejected rather than silently truncated. All failures are
// *datatypes.BadModelNameError with a caller-safe detail message.
//
// # Inputs
//
//   - modelList: Raw model_list query value, e.g. "ethereum" or " nft ".
//
// # Outputs
//
//   - string: The resolved model name.
//   - string: The endpoint URL for that model.
//   - error: *datatypes.BadModelNameError if the list is empty, names more
//     than one model, or names a model this registry does not know.
func (r *Registry) Resolve(modelList string) (string, string, error) {
	names := strings.Split(modelList, ",")
	for i, name := range names {
		names[i] = strings.TrimSpace(name)
	}

	if len(names) > 1 {
		return "", "", &datatypes.BadModelNameError{
			Detail: "Currently, only one model name can be provided at a time",
		}
	}

	if len(names) == 0 || names[0] == "" {
		return "", "", &datatypes.BadModelNameError{
			Detail: "No model names provided",
		}
	}

	model := names[0]
	url, ok := r.endpoints[model]
	if !ok {
		return "", "", &datatypes.BadModelNameError{
			Detail: fmt.Sprintf("Invalid model name(s): %s. Must be one of %s",
				model, strings.Join(r.KnownModels(), ", ")),
		}
	}

	return model, url, nil
}
