// Package gates evaluates the five startup readiness gates.
//
// Gate state is a schema-loose JSON document persisted at state/gates.json
// and seeded from templates/gates.template.json on first access. Each gate
// reads a small set of known fields through a typed record and ignores the
// rest. Evaluation is recomputed on every call; nothing is cached.
package gates
