// Package judgment matches an extracted query against judgment metadata.
//
// A match is made on citation, case number or party names. Exact matches
// (score 1.0) need normalized equality; partial matches (score 0.5) need a
// party name to be contained in, but not equal to, a petitioner or
// respondent. Substring matches (score 0.1) are a weaker signal on citation
// and case number, used only to boost other retrieval hits.
//
// Every matched judgment is expanded to all corpus chunks sharing its
// external id, so a judgment is never partially surfaced once matched.
package judgment
