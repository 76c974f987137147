// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Outward-facing error taxonomy for the analysis pipeline.
//
// Each stage of the pipeline returns one of these types instead of a bare
// error, so the HTTP handler can map failures to statuses with errors.As
// and never has to inspect error strings:
//
//   - InvalidAddressError  -> 400, fixed detail
//   - BadModelNameError    -> 400, detail names the offending/known models
//   - AnalysisError        -> 500, generic detail; cause is logged only
package datatypes

import "fmt"

// InvalidAddressDetail is the client-facing message for malformed addresses.
const InvalidAddressDetail = "Invalid address"

// AnalysisFailureDetail is the client-facing message for upstream failures.
// Deliberately generic: the root cause never crosses the HTTP boundary.
const AnalysisFailureDetail = "Error retrieving Passport analysis"

// InvalidAddressError reports a syntactically invalid or checksum-mismatched
// account address.
type InvalidAddressError struct {
	Address string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address: %q", e.Address)
}

// Detail returns the client-facing message. The offending address is not
// echoed back.
func (e *InvalidAddressError) Detail() string {
	return InvalidAddressDetail
}

// BadModelNameError reports an empty, multiple, or unknown model-name
// selection. Detail is safe to return to the caller verbatim.
type BadModelNameError struct {
	Detail string
}

func (e *BadModelNameError) Error() string {
	return fmt.Sprintf("bad model name: %s", e.Detail)
}

// AnalysisError wraps any failure while contacting or parsing an upstream
// model response. The wrapped cause is for logs only.
type AnalysisError struct {
	Cause error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("analysis failed: %v", e.Cause)
	}
	return "analysis failed"
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}
