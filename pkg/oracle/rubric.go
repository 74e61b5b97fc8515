package oracle

import (
	"fmt"
	"os"
	"strings"
)

// DefaultRubric is the eligibility rubric used when none is configured:
// low-risk TAVR versus SAVR, randomized trials only.
const DefaultRubric = `I am screening for a systematic review and meta-analysis on aortic valve replacement.
Please adhere strictly to the following criteria based on the study protocol.

**PICO Framework:**
*   **Population:** Adult patients with severe aortic stenosis classified as being at **LOW SURGICAL RISK** (e.g., STS score < 4%).
*   **Intervention:** Transcatheter Aortic Valve Replacement (TAVR or TAVI).
*   **Comparator:** Surgical Aortic Valve Replacement (SAVR). The study MUST be a direct comparison between TAVR and SAVR.
*   **Outcomes:** Must report on long-term (>=1 year) clinical outcomes such as mortality, stroke, reintervention, or MACCE.

**Inclusion Criteria:**
1.  **Study Design:** Must be a **Randomized Controlled Trial (RCT)**.
2.  **Population:** Must explicitly state that the patient cohort is **low-risk**.
3.  **Comparison:** Must compare TAVR directly against SAVR.

**Exclusion Criteria:**
1.  **Wrong Study Design:** Exclude ALL non-RCTs. This includes observational studies, cohort studies, registry analyses, case series, case reports, editorials, letters, and especially **systematic reviews or meta-analyses**.
2.  **Wrong Population:** Exclude studies focused on intermediate-risk or high-risk patients. Exclude pediatric studies or studies on conditions other than aortic stenosis.
3.  **Wrong Comparison:** Exclude studies that do not compare TAVR vs. SAVR (e.g., TAVR only, SAVR only, TAVR vs. medical therapy, comparisons between different TAVR devices).
4.  **Wrong Outcomes:** Exclude studies that only report on procedural details, imaging, or economic analyses without clinical outcomes.
5.  **Animal studies.**`

// LoadRubric reads a rubric from path, or returns DefaultRubric when path is
// empty.
func LoadRubric(path string) (string, error) {
	if path == "" {
		return DefaultRubric, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read rubric: %w", err)
	}
	rubric := strings.TrimSpace(string(data))
	if rubric == "" {
		return "", fmt.Errorf("rubric file %s is empty", path)
	}
	return rubric, nil
}
