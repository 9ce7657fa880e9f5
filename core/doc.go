// Package core defines the entities of the transparency data model:
// the institution, its budget lines, grant calls and awards, and public
// tenders with their optional embeddings.
package core
