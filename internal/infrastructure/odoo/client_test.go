package odoo

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/qm/backend/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func xmlResponse(value string) string {
	return `<?xml version="1.0"?><methodResponse><params><param><value>` + value + `</value></param></params></methodResponse>`
}

const categoriesReply = `<array><data>
<value><struct>
<member><name>id</name><value><int>3</int></value></member>
<member><name>name</name><value><string>Tools</string></value></member>
<member><name>code</name><value><string>10</string></value></member>
<member><name>parent_id</name><value><boolean>0</boolean></value></member>
<member><name>tax_classification_id</name><value><boolean>0</boolean></value></member>
<member><name>write_date</name><value><string>2024-03-01 10:00:00</string></value></member>
</struct></value>
<value><struct>
<member><name>id</name><value><int>4</int></value></member>
<member><name>name</name><value><string>Hand tools</string></value></member>
<member><name>code</name><value><string>01</string></value></member>
<member><name>parent_id</name><value><array><data><value><int>3</int></value><value><string>Tools</string></value></data></array></value></member>
<member><name>tax_classification_id</name><value><array><data><value><int>9</int></value><value><string>Metal tools</string></value></data></array></value></member>
<member><name>write_date</name><value><string>2024-03-02 08:30:00</string></value></member>
</struct></value>
</data></array>`

type fakeOdoo struct {
	t        *testing.T
	uid      string
	requests []string
}

func (f *fakeOdoo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	require.NoError(f.t, err)
	req := string(body)
	f.requests = append(f.requests, r.URL.Path+" "+req)
	w.Header().Set("Content-Type", "text/xml")

	switch {
	case r.URL.Path == "/xmlrpc/2/common" && strings.Contains(req, "<methodName>authenticate</methodName>"):
		_, _ = io.WriteString(w, xmlResponse(f.uid))
	case r.URL.Path == "/xmlrpc/2/object" && strings.Contains(req, "product.category"):
		_, _ = io.WriteString(w, xmlResponse(categoriesReply))
	default:
		_, _ = io.WriteString(w, xmlResponse(`<array><data></data></array>`))
	}
}

func newFakeClient(t *testing.T, uid string) (*Client, *fakeOdoo) {
	fake := &fakeOdoo{t: t, uid: uid}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	return NewClient(Config{URL: server.URL + "/", Database: "qm", Username: "admin", Password: "secret"}, zap.NewNop()), fake
}

func TestClient_Authenticate(t *testing.T) {
	t.Run("returns uid", func(t *testing.T) {
		client, fake := newFakeClient(t, "<int>7</int>")
		uid, err := client.Authenticate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(7), uid)
		require.Len(t, fake.requests, 1)
		assert.Contains(t, fake.requests[0], "<string>qm</string>")
	})

	t.Run("rejected credentials", func(t *testing.T) {
		client, _ := newFakeClient(t, "<boolean>0</boolean>")
		_, err := client.Authenticate(context.Background())
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})
}

func TestSource_Categories(t *testing.T) {
	client, fake := newFakeClient(t, "<int>2</int>")
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	categories, err := NewSource(client).Categories(context.Background(), integration.LegacyQuery{Since: &since, Limit: 100})

	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, int64(3), categories[0].ID)
	assert.Zero(t, categories[0].ParentID)
	assert.Equal(t, "01", categories[1].Code)
	assert.Equal(t, int64(3), categories[1].ParentID)
	assert.Equal(t, int64(9), categories[1].TaxClassificationID)
	assert.Equal(t, time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC), categories[1].WriteDate)

	// authenticate once, then execute_kw
	require.Len(t, fake.requests, 2)
	assert.True(t, strings.HasPrefix(fake.requests[1], "/xmlrpc/2/object"))
	assert.Contains(t, fake.requests[1], "search_read")
	assert.Contains(t, fake.requests[1], "2024-01-01 00:00:00")
	assert.Contains(t, fake.requests[1], "parent_path, id")
}

func TestSource_Partners_Empty(t *testing.T) {
	client, fake := newFakeClient(t, "<int>2</int>")
	partners, err := NewSource(client).Partners(context.Background(), integration.LegacyQuery{})
	require.NoError(t, err)
	assert.Empty(t, partners)
	assert.Contains(t, fake.requests[1], "active_test")
}

func TestRecord_Accessors(t *testing.T) {
	r := Record{
		"id":            int64(5),
		"name":          "Acme",
		"vat":           false,
		"is_company":    true,
		"customer_rank": int64(2),
		"parent_id":     []interface{}{int64(1), "Parent"},
		"write_date":    "2024-05-06 07:08:09",
	}
	assert.Equal(t, int64(5), r.ID())
	assert.Equal(t, "Acme", r.String("name"))
	assert.Empty(t, r.String("vat"))
	assert.True(t, r.Bool("is_company"))
	assert.Equal(t, int64(2), r.Int("customer_rank"))
	id, name := r.Many2One("parent_id")
	assert.Equal(t, int64(1), id)
	assert.Equal(t, "Parent", name)
	missing, _ := r.Many2One("vat")
	assert.Zero(t, missing)
	assert.Equal(t, 2024, r.Time("write_date").Year())
	assert.True(t, r.Time("missing").IsZero())
}
