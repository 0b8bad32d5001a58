package adjudication

import (
	"fmt"
	"strings"
)

// underwriterPrompt asks the interpreter to act as a claims underwriter:
// assess severity and damage percentage from the narrative and images, judge
// whether the requested amount is consistent with typical repair cost, cap
// any approvable amount at the policy's coverage, and flag anything that
// looks exaggerated in the remarks.
func underwriterPrompt(narrative string, requestedAmount, coverageCap float64, hints []string) string {
	var b strings.Builder
	b.WriteString(`You are an experienced insurance claims underwriter. Analyze the vehicle damage report below together with the attached images.

Follow these steps:
1. Analyze the damage described and visible.
2. Estimate the severity and the percentage of the vehicle that is damaged.
3. Assess whether the requested claim amount is justified against typical repair costs for such damage.
4. Compare the requested amount with the maximum claimable amount under the policy; never approve more than that maximum.
5. Determine a reasonable approvable amount for payout.

If any part of the request seems suspicious or exaggerated, say so in the remarks.

Input:
`)
	fmt.Fprintf(&b, "- Damage Description: %q\n", narrative)
	fmt.Fprintf(&b, "- Requested Amount: %.2f\n", requestedAmount)
	fmt.Fprintf(&b, "- Policy Claimable Amount: %.2f\n", coverageCap)
	if len(hints) > 0 {
		fmt.Fprintf(&b, "- Automated image analysis hints: %s\n", strings.Join(hints, "; "))
	}
	b.WriteString(`
Respond only with a JSON object in the following format:
` + "```json" + `
{
    "damage_analysis": "Brief analysis of the nature and severity of the damage",
    "damage_percentage": "Estimated percentage of vehicle damaged (e.g. 35%)",
    "severity_level": "Low | Moderate | High | Critical",
    "approvable_amount": 0.0,
    "reason_for_approval": "Justification for the approved amount",
    "remarks": "Any concerns, anomalies, or notes for the adjuster"
}
` + "```")
	return b.String()
}
