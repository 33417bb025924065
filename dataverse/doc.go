// Package dataverse is a client for the Dataverse Web API. Its core is the
// FetchXML paging engine: RetrieveMultiple and RetrieveMultipleCount drive a
// caller-supplied FetchXML query through the server's cursor-based paging
// protocol until the result set is exhausted, rewriting the query's root tag
// between pages to carry the paging cookie forward.
//
// Metadata listing and single-record update/delete calls are thin wrappers
// with no state of their own.
package dataverse
