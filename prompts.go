package paperlens

const mindMapPrompt = `Analyze this medical research paper and create a mind map in JSON format.

CRITICAL: Return ONLY a valid JSON object with NO additional text or explanation.

Required JSON structure:
{
  "nodes": [
    {
      "id": "unique_string_id",
      "label": "node_text",
      "type": "main" | "subtopic" | "detail",
      "children": [
        {
          "id": "child_id",
          "label": "child_text",
          "type": "subtopic" | "detail",
          "children": []
        }
      ]
    }
  ],
  "relationships": [
    {
      "from": "node_id",
      "to": "node_id",
      "label": "optional_relationship_description"
    }
  ],
  "metadata": {
    "paperTitle": "full_paper_title",
    "authors": ["author1", "author2"],
    "year": 2024,
    "mainTopic": "paper_main_topic"
  }
}

Guidelines:
1. Main sections (Abstract, Methods, Results) should be type "main"
2. Key findings and methodologies should be type "subtopic"
3. Supporting details should be type "detail"
4. Every node must have a unique "id"
5. Include relevant cross-section relationships
6. Ensure all JSON syntax is valid (quotes, commas, brackets)`

const insightsPrompt = `Extract and analyze the top 10 most significant insights from this medical research paper.

CRITICAL: Format your response as follows:

1. [Main Finding]: Brief description of the primary insight
   - Supporting evidence or statistical significance
   - Clinical or research implications

2. [Main Finding]: Next key insight
   ...

Continue this format for all 10 insights. Each insight should:
- Start with a clear, concise statement
- Include supporting data or evidence
- Explain the significance or implications
- Use bullet points for clarity

DO NOT include any introductory text or conclusions.
Start directly with "1." and end with the last insight.`

const achievementsPrompt = `Identify and explain the major achievements and innovations presented in this research paper. Focus on what makes these contributions significant to the field.`

const researchIdeasPrompt = `Based on this paper's findings and limitations, suggest future research directions.

Format your response as follows:

GAPS AND OPPORTUNITIES:
1. [Research Gap]: Description
   - Potential approach to address this gap
   - Expected impact and significance

2. [Research Gap]: Description
   ...

METHODOLOGICAL IMPROVEMENTS:
1. [Method]: Suggested improvement
   - Rationale and potential benefits
   - Implementation considerations

FOLLOW-UP STUDIES:
1. [Study Proposal]: Brief description
   - Key objectives and hypotheses
   - Potential methodology

List at least 3 items under each category. Be specific and actionable.
DO NOT include any introductory or concluding text.`

// Prompt returns the instruction posted to the kind's assistant.
func Prompt(k Kind) string {
	switch k {
	case KindMindMap:
		return mindMapPrompt
	case KindInsights:
		return insightsPrompt
	case KindAchievements:
		return achievementsPrompt
	case KindResearchIdeas:
		return researchIdeasPrompt
	}
	return ""
}
