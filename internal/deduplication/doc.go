// Package deduplication decides whether an incoming chat message repeats
// work already tracked in the backend.
//
// # Overview
//
// Two components live here:
//
//  1. Oracle (FindDuplicate): given a candidate text and an ordered list of
//     existing texts, return the existing text it duplicates, if any.
//  2. Matcher (MatchStory): given a message and the project's stories, decide
//     whether the message is an exact duplicate of a story, belongs under a
//     story as a sub-item, or matches nothing.
//
// # Oracle algorithm
//
// The Oracle asks the generator for the single exact duplicate and accepts the
// reply only if it names one of the supplied candidates (ai.ParseDuplicateReply).
// When the generator fails, or gives no confirmed match, the Oracle falls back
// to similarity.FirstAbove with the caller's threshold. The first existing
// text whose ratio is strictly above the threshold wins.
//
// Story checks use StoryThreshold (0.8) and sub-item checks SubItemThreshold
// (0.7). Sub-items are merged at the lower bar on purpose.
//
// # Matcher algorithm
//
//	stories empty          -> NoMatch, no generator calls
//	Oracle(titles) hit     -> ExactDuplicate(story with that title)
//	generator index 1..n   -> FuzzyMatch(stories[i-1])
//	anything else          -> NoMatch
//
// The index reply is parsed with ai.ParseStoryIndex; prose, "None" and
// out-of-range numbers are all NoMatch.
//
// # Configuration
//
// See DefaultConfig and ConfigFromEnv. Both thresholds are tunable:
//
//	TT_DEDUP_STORY_THRESHOLD=0.85 TT_DEDUP_SUBITEM_THRESHOLD=0.75 teams-taiga serve
//
// Setting TT_DEDUP_USE_GENERATOR=false skips every generator call and runs the
// deterministic heuristic only (stage 2 of the Matcher then never matches).
package deduplication
