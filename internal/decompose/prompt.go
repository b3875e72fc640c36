package decompose

// decompositionPrompt asks a backend to break a goal into a JSON task
// array. Dependencies are declared by title and resolved to ids during
// parsing.
const decompositionPrompt = `Break the following goal into the smallest set of independent subtasks
that together accomplish it. Prefer subtasks that can run in parallel;
declare a dependency only when one subtask genuinely needs another's
output.

Respond with ONLY a JSON array, no prose, where each element is:
{
  "title": "short unique name",
  "description": "the full request to execute for this subtask",
  "depends_on": ["titles of prerequisite subtasks"]
}

Goal:
%s`
