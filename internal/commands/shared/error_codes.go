// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shared

// Error codes for structured JSON output
const (
	// Validation errors (E001-E099)
	ErrorCodeMissingField     = "E001" // Missing required field
	ErrorCodeInvalidYAML      = "E002" // Invalid YAML syntax
	ErrorCodeSchemaViolation  = "E003" // Schema constraint violation
	ErrorCodeInvalidReference = "E004" // Invalid reference (unknown step or parameter)
	ErrorCodeInvalidCondition = "E005" // Condition expression rejected

	// Rendering errors (E100-E199)
	ErrorCodeRenderFailed = "E101" // Definition rendering failed

	// Query errors (E200-E299)
	ErrorCodeInvalidQuery = "E201" // jq query failed to compile
	ErrorCodeQueryFailed  = "E202" // jq query execution failed

	// Input errors (E300-E399)
	ErrorCodeFileNotFound = "E303" // File not found
)
