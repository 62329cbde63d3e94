// Package ui implements an interactive duplicate lyrics review using bubbletea's Elm architecture.
//
// The TUI walks a moderator through the loose duplicate scan:
//  1. [CandidateListView] : Browse flagged pairs in scan order
//  2. [DetailView] : Compare both lyrics side by side with their score and character diff
//  3. [ConfirmView] : Confirm deleting one side of the pair
//
// Deleting an entry triggers a rescan, so pairs involving the deleted entry disappear. Dismissing a
// pair only hides it until the next scan; dismissals are not stored.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, a/b/d, y/n, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
