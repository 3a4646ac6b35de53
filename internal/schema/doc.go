// Package schema maps flattened models onto tables and renders the
// parameter-bound statements that read and write them.
package schema
