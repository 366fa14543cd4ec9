package assessment

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/skillproof/internal/domain"
)

func skillsPrompt(text string, required []string) string {
	return fmt.Sprintf(`You analyze resumes for a hiring platform. Read the candidate text below and assess their skills and experience level.

REQUIRED SKILLS TO MATCH: %s

CANDIDATE TEXT:
%s

Reply with pure JSON (no markdown) using exactly these keys:
{
  "detectedSkills": ["skill", ...],
  "skillsDepth": "Low|Medium|High",
  "experienceSummary": "short summary of the candidate's experience",
  "projectComplexity": "Low|Medium|High",
  "suggestedLevel": "Beginner|Intermediate|Experienced",
  "confidence": "High|Medium|Low",
  "reasoning": "why you chose this level"
}

Rules:
- Prefer the required skill names when a detected skill matches one.
- Judge skills depth from years and kind of experience.
- Project complexity: Low for simple projects, Medium for typical products, High for large or complex systems.
- Confidence is High with clear evidence, Medium with some ambiguity, Low when the text is unclear.
`, strings.Join(required, ", "), text)
}

func taskPrompt(req domain.TaskRequest) string {
	desc := req.Description
	if strings.TrimSpace(desc) == "" {
		desc = "Not provided"
	}
	return fmt.Sprintf(`You write skill assessment tasks for job candidates. Produce one explanation-based task (not multiple choice) that checks real understanding of the required skills.

JOB TITLE: %s
REQUIRED SKILLS: %s
CANDIDATE LEVEL: %s
JOB DESCRIPTION: %s

The task has three clearly separated parts:
1. Conceptual understanding: a deep question about the core skills asking how and why.
2. Coding exercise: a focused function, component or query relevant to %s. Never a full application.
3. Scenario: a realistic production issue or architecture decision and how they would handle it.

Reply with pure JSON only:
{
  "taskName": "short task name",
  "taskDescription": "markdown description containing all three parts"
}
`, req.JobTitle, strings.Join(req.RequiredSkills, ", "), req.Level, desc, req.JobTitle)
}

func evaluationPrompt(req domain.EvaluationRequest, answer string) string {
	m := req.Metrics
	return fmt.Sprintf(`You are a technical interviewer judging how well a candidate understands a skill.

TASK GIVEN:
%s

CANDIDATE ANSWER:
%s

CANDIDATE LEVEL: %s
REQUIRED SKILLS: %s

BEHAVIOR METRICS:
- Total time: %.0f seconds
- Delay before typing: %.0f seconds
- Typing duration: %.0f seconds
- Idle time: %.0f seconds
- Answer length: %d characters
- Tab switches: %d
- Window blurs: %d
- Copy attempts: %d
- Focus losses: %d

Judge concept clarity, depth, logical structure, real-world reasoning, communication, thinking approach, time efficiency and code quality.
When the task includes a coding exercise, code correctness carries 40%% of the score.

Score bands (0-10):
- 9-10 expert, exceptional understanding
- 7-8 strong grasp with good depth
- 5-6 acceptable with some gaps
- 3-4 surface level with significant gaps
- 0-2 lacks understanding

Reply with pure JSON only:
{
  "explanationScore": 0-10,
  "approachQuality": "Structured|Semi-structured|Random",
  "thinkingStyle": "description of the thinking style",
  "timeEfficiency": "Fast|Balanced|Slow",
  "strengths": ["..."],
  "weaknesses": ["..."],
  "verdict": "Understands well|Surface-level|Needs improvement",
  "confidenceInsight": "claimed versus shown confidence"
}
`, req.Task, answer, req.Level, strings.Join(req.RequiredSkills, ", "),
		m.TotalTimeSeconds, m.DelayBeforeTypingSeconds, m.TypingDurationSeconds, m.IdleTimeSeconds,
		m.AnswerLength, m.TabSwitchCount, m.WindowBlurCount, m.CopyAttemptCount, m.FocusLossCount)
}

func reportPrompt(req domain.ReportTextRequest) string {
	ev := req.Evaluation
	return fmt.Sprintf(`Write a professional skill proof report for an HR team. It is an assessment summary, not a certificate.

CANDIDATE: %s
POSITION: %s
INFERRED SKILL LEVEL: %s

TASK GIVEN:
%s

ANSWER SUMMARY:
%s

EVALUATION:
- Score: %.1f/10
- Verdict: %s
- Approach: %s
- Thinking style: %s
- Time efficiency: %s
- Strengths: %s
- Weaknesses: %s

BEHAVIOR:
- Total time: %.0f seconds
- Tab switches: %d
- Window blurs: %d

INTEGRITY STATUS: %s
CONFIDENCE ASSESSMENT: %s

Write two or three plain-English paragraphs covering the overall assessment, strengths and weaknesses, thinking and behaviour, and a final recommendation. Avoid jargon.
`, req.CandidateName, req.JobTitle, req.Level, req.TaskGiven, req.AnswerSummary,
		ev.Score, ev.Verdict, ev.ApproachQuality, ev.ThinkingStyle, ev.TimeEfficiency,
		strings.Join(ev.Strengths, ", "), strings.Join(ev.Weaknesses, ", "),
		req.Metrics.TotalTimeSeconds, req.Metrics.TabSwitchCount, req.Metrics.WindowBlurCount,
		req.IntegrityStatus, req.ConfidenceAssessment)
}
