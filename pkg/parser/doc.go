// Package parser turns free-form instructions into ordered domain.Command lists.
//
// Parsing runs through tiers. The model tier asks a ports.Completer for JSON;
// the rule tier tries an ordered list of Rule patterns; the synthetic tier
// splits on conjunctions and always produces something. The Splitter then
// recovers sub-instructions a tier merged, and the Interpreter ties both
// together for the planner.
package parser
