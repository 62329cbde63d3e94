/*
Package server exposes the songbook [services.Library] as a JSON API.

Public routes list approved lyrics, accept submissions and read the artist, blog and radio
catalogs; drafts stay hidden. Every other write lives under /api/admin: moderation, the
duplicate review (loose scan report, pair diffs, dismissals) and catalog edits such as new
artists, posts and stations.

Submissions run through the strict duplicate guard. A rejected submission answers 409 with the
policy and the existing entries it matched:

	{"error": "lyrics duplicate an existing entry", "matches": [...], "policy": {...}}

Submissions are rate limited per client address, see [RateLimit] and [Limits.TrustProxy].
Admin routes carry no authentication of their own; put /api/admin behind the proxy that does.
*/
package server
