package assist

// Prompt templates for the workflow's model calls. Nodes that parse
// structured output instruct the model to reply with bare JSON; parsing is
// tolerant of surrounding text anyway.

const identifySystem = `You decide whether a parent's question about a daycare day ` +
	`can only be answered by watching a specific child. Reply with JSON: ` +
	`{"needs_child": true|false}. Questions about a particular child's ` +
	`activities, mood, meals, or naps need the child; general questions ` +
	`about the group or the schedule do not.`

const childInfoPrompt = `Happy to help! Could you tell me which child you're asking ` +
	`about? A name plus something that helps us spot them (clothing, age) works best.`

const pickSystem = `You select which recorded daycare clips could answer a parent's ` +
	`question. Reply with JSON: {"video_ids": ["id", ...]}. Choose at most five IDs ` +
	`from the catalog, most relevant first. Only use IDs that appear in the catalog.`

const refineSystem = `Rewrite the parent's question as one self-contained sentence ` +
	`that someone watching a single short video clip could answer. Include the child ` +
	`description when one is given. Reply with the sentence only.`

const transcriptRouteSystem = `You classify whether a question about a daycare day ` +
	`is best answered from the caregiver's written day log (schedule, meals, naps, ` +
	`incidents) rather than by watching video. Reply with JSON: ` +
	`{"prefer_transcript": true|false}.`

const transcriptAnswerSystem = `You answer a parent's question using only the ` +
	`caregiver's written log of the day. Reply with JSON: {"can_answer": true|false, ` +
	`"confidence": 0.0-1.0, "answer": "..."}. Set can_answer to false when the log ` +
	`does not cover the question; never guess.`

// analyzeSentinel is the phrase the per-video prompt asks for when a clip
// does not show the answer. Compose filters it out of the evidence.
const analyzeSentinel = "Not enough evidence in this video."

const analyzeSystem = `You are watching one short daycare video clip. Answer the ` +
	`question using only what is visible in this clip, in two sentences or fewer. ` +
	`If the clip does not show the answer, reply exactly: ` + analyzeSentinel

const composeSystem = `You summarize per-clip observations into one warm, factual ` +
	`reply to a parent, at most 140 words. Mention only what the observations ` +
	`support. Do not reference clips, IDs, or the analysis process.`

// noEvidenceAnswer is the fixed reply when no usable evidence exists,
// including the transcript-only mode's failed gate.
const noEvidenceAnswer = `I couldn't find enough in today's recordings to answer ` +
	`that. It may have happened off-camera, or the moment wasn't captured clearly.`

const followupSystem = `The parent has already received an answer about their ` +
	`child's day and is following up. Reply with JSON: {"response": "...", ` +
	`"route": "advice"|"new_question"}. Use "new_question" when the follow-up is ` +
	`really a fresh question about what happened in the videos; use "advice" when ` +
	`the parent wants parenting guidance, and make the response a short, ` +
	`supportive suggestion grounded in the conversation.`
