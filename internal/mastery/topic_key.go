// Package mastery turns graded questions into topic-level mastery summaries.
//
// Everything here is pure: no I/O, no clocks, no shared mutable state.
package mastery

import "strings"

// FallbackTopicKey groups questions that carry neither a topic nor a sub-topic.
const FallbackTopicKey = "General"

// ResolveKey returns the canonical grouping key for a topic classification.
// The sub-topic wins when present, then the topic, then FallbackTopicKey.
func ResolveKey(topic string, subTopic ...string) string {
	if len(subTopic) > 0 {
		if st := strings.TrimSpace(subTopic[0]); st != "" {
			return st
		}
	}
	if t := strings.TrimSpace(topic); t != "" {
		return t
	}
	return FallbackTopicKey
}
