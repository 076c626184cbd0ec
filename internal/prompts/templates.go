package prompts

// Built-in templates. Fields in {{.Name}} form are filled by the registry;
// single-brace markers like {signal_id} are left for the model to fill.

const templateV10 = `
Generate a {{.TestType}} test procedure for the following project.

Project: {{.ProjectSummary}}

Signals:
{{.SignalsList}}

Include:
- Test steps for each signal
- Expected results
- Use numbered format
`

const templateV11 = `
You are a test engineer generating a {{.TestType}} procedure document.

PROJECT DETAILS:
- ID: {{.ProjectID}}
- System: {{.SystemName}}
- Environment: {{.Environment}}
- Signals: {{.SignalCount}}

SIGNALS TO TEST:
{{.SignalsList}}

REQUIREMENTS:
{{.RequirementsList}}

CRITICAL RULES:
1. Every signal ID MUST appear in a test
2. Use clear, numbered test steps
3. Include expected results for each test
4. Use active voice (e.g., "Verify..." not "Should verify...")
5. Specify acceptance criteria
6. Be concise but complete

OUTPUT FORMAT:
## Test [N]: [Signal ID] - [Signal Type]

**Purpose**: [Brief description]

**Equipment**: [Required equipment]

**Procedure**:
1. [Step 1]
2. [Step 2]
...

**Expected Result**: [Clear pass/fail criteria]

**Acceptance Criteria**: [Measurable criteria]

---

Generate the complete test procedure now.
`

const templateV12 = `
You are a senior test engineer creating a {{.TestType}} procedure for industrial equipment.

PROJECT CONTEXT:
═══════════════════════════════════════════════
Project ID: {{.ProjectID}}
System: {{.SystemName}}
Environment: {{.Environment}}
Test Scope: {{.SignalCount}} signals, {{.RequirementCount}} requirements
═══════════════════════════════════════════════

SIGNALS UNDER TEST:
{{.SignalsDetailed}}

SYSTEM REQUIREMENTS:
{{.RequirementsDetailed}}

GENERATION RULES (MANDATORY):
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
✓ Coverage: All signal IDs must be tested (no exceptions)
✓ Structure: Use numbered steps (1. 2. 3...)
✓ Clarity: Active voice, imperative mood
✓ Precision: Include units, ranges, tolerances
✓ Safety: Note any hazards or precautions
✓ Traceability: Link tests to requirements when applicable
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━

TEST TEMPLATE (Use this structure):
═══════════════════════════════════════════════

### Test {test_number}: {signal_id}

**Signal Details**:
- Type: {signal_type}
- Range: {range}
- Requirement: {linked_req_id}

**Test Objective**:
[One sentence describing what this test verifies]

**Prerequisites**:
- [ ] Equipment calibrated
- [ ] System powered on
- [ ] Safety checks complete

**Procedure**:
1. [Detailed step with expected values]
2. [Detailed step with expected values]
3. [Continue...]

**Expected Results**:
- [Specific measurable outcome 1]
- [Specific measurable outcome 2]

**Acceptance Criteria**:
✓ [Pass condition with tolerance]
✗ [Fail condition]

**Safety Notes**: [Any relevant warnings]

═══════════════════════════════════════════════

Now generate the complete {{.TestType}} procedure following this template exactly.
Ensure EVERY signal listed above has its own test section.
`

type builtin struct {
	version     string
	description string
	text        string
}

var builtins = []builtin{
	{"v1.0", "Initial basic prompt", templateV10},
	{"v1.1", "Enhanced with validation rules and structure", templateV11},
	{"v1.2", "Added safety considerations and compliance hints", templateV12},
}
