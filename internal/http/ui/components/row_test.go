package components

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRow_PlainRow(t *testing.T) {
	out := Row(RowConfig{}, Cell(ElementConfig{}, Text("a")), Cell(ElementConfig{}, Text("b")))
	body := string(out)

	assert.Equal(t, 2, strings.Count(body, "<td"))
	assert.Contains(t, body, `class="table-row"`)
	assert.NotContains(t, body, "hx-get")
	assert.NotContains(t, body, "actions-menu")
}

func TestRow_LinkToAttachesNavigationAndPointerCursor(t *testing.T) {
	out := Row(RowConfig{LinkTo: "/orders/42", Target: "#content"}, Cell(ElementConfig{}, Text("a")))
	body := string(out)

	assert.Contains(t, body, `hx-get="/orders/42"`)
	assert.Contains(t, body, `hx-push-url="true"`)
	assert.Contains(t, body, `hx-target="#content"`)
	assert.Contains(t, body, "table-row-link")
}

func TestRow_ActionsAppendExactlyOneExtraCell(t *testing.T) {
	actions := []Action{
		{Label: "View", Target: "/orders/42"},
		{Label: "Archive", Target: "/orders/42/archive", Method: "post", Icon: "icon-archive"},
	}
	out := Row(RowConfig{Actions: actions},
		Cell(ElementConfig{}, Text("a")),
		Cell(ElementConfig{}, Text("b")),
	)
	body := string(out)

	// Two children plus the single trailing actions cell.
	assert.Equal(t, 3, strings.Count(body, "<td"))
	assert.Equal(t, 1, strings.Count(body, "table-cell-actions"))
	// The actions cell comes after the row's other children.
	assert.Greater(t, strings.Index(body, "table-cell-actions"), strings.LastIndex(body, ">b<"))

	assert.Contains(t, body, `hx-get="/orders/42"`)
	assert.Contains(t, body, `hx-post="/orders/42/archive"`)
	assert.Contains(t, body, "icon-archive")
	assert.Contains(t, body, ">Archive</button>")
}

func TestRow_ActionsCellStopsPropagation(t *testing.T) {
	out := Row(RowConfig{
		LinkTo:  "/foo",
		Actions: []Action{{Label: "Delete", Target: "/foo/delete", Method: "delete"}},
	})
	body := string(out)

	// Row navigation and the propagation guard must both be present; the
	// guard sits on the actions cell so menu clicks never navigate.
	assert.Contains(t, body, `hx-get="/foo"`)
	cell := body[strings.Index(body, "<td"):]
	assert.Contains(t, cell, `hx-on:click="event.stopPropagation()"`)
	assert.Contains(t, cell, `hx-delete="/foo/delete"`)
}

func TestRow_EmptyActionsDoesNotAppendCell(t *testing.T) {
	out := Row(RowConfig{Actions: []Action{}}, Cell(ElementConfig{}, Text("a")))
	assert.Equal(t, 1, strings.Count(string(out), "<td"))
}

func TestRow_MergesCallerClass(t *testing.T) {
	out := Row(RowConfig{Class: "row-highlight", LinkTo: "/x"})
	assert.Contains(t, string(out), `class="table-row table-row-link row-highlight"`)
}
