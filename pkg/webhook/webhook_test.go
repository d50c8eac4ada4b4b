package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/vcgate/vcgate/pkg/db"
	"github.com/vcgate/vcgate/pkg/notify"
	"github.com/vcgate/vcgate/pkg/proto"
	"github.com/vcgate/vcgate/pkg/store"
	"github.com/vcgate/vcgate/pkg/store/database"
	"github.com/vcgate/vcgate/pkg/test"
	"gopkg.in/yaml.v3"
)

type request struct {
	header http.Header
	body   []byte
}

func setup(t *testing.T) (context.Context, *db.DB, store.Store) {
	t.Helper()
	ctx := context.TODO()
	dbx := test.OpenDB(ctx, t)
	st := database.New(ctx, dbx)
	return store.WithContext(db.WithContext(ctx, dbx), st), dbx, st
}

func recorder(t *testing.T) (*httptest.Server, func() []request) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, request{header: r.Header.Clone(), body: b})
		mu.Unlock()
		w.Header().Set("X-Test", "ok")
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []request {
		mu.Lock()
		defer mu.Unlock()
		return append([]request(nil), reqs...)
	}
}

func useClient(t *testing.T, c *http.Client) {
	t.Helper()
	old := httpClient
	httpClient = c
	t.Cleanup(func() { httpClient = old })
}

func testRepo(id int64) *proto.Repository {
	return &proto.Repository{
		ID:                  id,
		Name:                "drupal",
		VCS:                 "svn",
		AuthorizationMethod: "ffa",
	}
}

func testOperation(repo *proto.Repository) (*proto.Operation, []proto.Item) {
	op := &proto.Operation{
		ID:         7,
		Type:       proto.OperationCommit,
		Repository: repo,
		Date:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Author:     proto.Author{UserID: 2, Username: "dries"},
		Message:    "Fix the frobnicator.",
		Revision:   "0123abcd",
		Directory:  "/modules",
		Labels:     []proto.Label{{Name: "main", Type: proto.LabelBranch, Action: proto.ActionModified}},
	}
	items := []proto.Item{
		{Path: "/modules/frob.module", Type: proto.ItemFile, Action: proto.ActionModified, SourceItems: []proto.Item{{Path: "/modules/frob.module", Type: proto.ItemFile}}},
	}
	return op, items
}

func TestSendEvent(t *testing.T) {
	is := is.New(t)
	ctx, dbx, st := setup(t)
	srv, requests := recorder(t)
	useClient(t, srv.Client())

	repoID, err := st.CreateRepo(ctx, dbx, "drupal", "git", "", "ffa", "")
	is.NoErr(err)

	commits, err := st.CreateWebhook(ctx, dbx, repoID, srv.URL+"/commits", "s3cret", int(ContentTypeJSON), true)
	is.NoErr(err)
	is.NoErr(st.CreateWebhookEvents(ctx, dbx, commits, []int{int(EventCommit)}))

	inactive, err := st.CreateWebhook(ctx, dbx, repoID, srv.URL+"/inactive", "", int(ContentTypeJSON), false)
	is.NoErr(err)
	is.NoErr(st.CreateWebhookEvents(ctx, dbx, inactive, []int{int(EventCommit)}))

	accounts, err := st.CreateWebhook(ctx, dbx, repoID, srv.URL+"/accounts", "", int(ContentTypeJSON), true)
	is.NoErr(err)
	is.NoErr(st.CreateWebhookEvents(ctx, dbx, accounts, []int{int(EventAccount)}))

	op, items := testOperation(testRepo(repoID))
	payload, err := NewEventPayload(ctx, notify.OperationEvent(notify.ActionInsert, op, items))
	is.NoErr(err)
	is.Equal(payload.Event(), EventCommit)
	is.NoErr(SendEvent(ctx, payload))

	reqs := requests()
	is.Equal(len(reqs), 1)
	req := reqs[0]
	is.Equal(req.header.Get("X-Vcgate-Event"), "commit")
	is.Equal(req.header.Get("Content-Type"), "application/json")
	is.Equal(req.header.Get("X-Vcgate-Signature"), Sign("s3cret", req.body))
	is.True(strings.HasPrefix(req.header.Get("User-Agent"), "vcgate/"))

	var body struct {
		Event      string `json:"event"`
		Action     string `json:"action"`
		Repository struct {
			Name    string `json:"name"`
			VCSName string `json:"vcs_name"`
		} `json:"repository"`
		Operation struct {
			Author struct {
				Username string `json:"username"`
			} `json:"author"`
			Labels []Label `json:"labels"`
		} `json:"operation"`
		Items []Item `json:"items"`
	}
	is.NoErr(json.Unmarshal(req.body, &body))
	is.Equal(body.Event, "commit")
	is.Equal(body.Action, "insert")
	is.Equal(body.Repository.Name, "drupal")
	is.Equal(body.Repository.VCSName, "Subversion")
	is.Equal(body.Operation.Author.Username, "dries")
	is.Equal(body.Operation.Labels, []Label{{Name: "main", Type: "branch", Action: "modified"}})
	is.Equal(len(body.Items), 1)
	is.Equal(body.Items[0].Source, "/modules/frob.module")

	deliveries, err := st.ListWebhookDeliveriesByWebhookID(ctx, dbx, commits)
	is.NoErr(err)
	is.Equal(len(deliveries), 1)
	is.Equal(deliveries[0].ResponseStatus, http.StatusAccepted)
	is.Equal(deliveries[0].Event, int(EventCommit))
	is.True(deliveries[0].Succeeded())

	full, err := st.GetWebhookDeliveryByID(ctx, dbx, commits, deliveries[0].ID)
	is.NoErr(err)
	is.Equal(full.RequestBody, string(req.body))
	is.True(strings.Contains(full.RequestHeaders, "X-Vcgate-Delivery: "+full.ID.String()))
	is.True(strings.Contains(full.ResponseHeaders, "X-Test: ok"))

	none, err := st.ListWebhookDeliveriesByWebhookID(ctx, dbx, inactive)
	is.NoErr(err)
	is.Equal(len(none), 0)
}

func TestSubscriber(t *testing.T) {
	is := is.New(t)
	ctx, dbx, st := setup(t)
	srv, requests := recorder(t)
	useClient(t, srv.Client())

	repoID, err := st.CreateRepo(ctx, dbx, "drupal", "git", "", "ffa", "")
	is.NoErr(err)
	id, err := st.CreateWebhook(ctx, dbx, repoID, srv.URL, "", int(ContentTypeForm), true)
	is.NoErr(err)
	is.NoErr(st.CreateWebhookEvents(ctx, dbx, id, []int{int(EventAccount)}))

	sub := NewSubscriber(dbx, st)
	acc := &proto.Account{ID: 3, RepoID: repoID, Username: "webchick"}
	is.NoErr(sub.Notify(context.TODO(), notify.AccountEvent(notify.ActionDelete, testRepo(repoID), acc)))

	reqs := requests()
	is.Equal(len(reqs), 1)
	v, err := url.ParseQuery(string(reqs[0].body))
	is.NoErr(err)
	is.Equal(v.Get("event"), "account")
	is.Equal(v.Get("action"), "delete")
	is.Equal(v.Get("repository[name]"), "drupal")
	is.Equal(v.Get("account[username]"), "webchick")
	is.Equal(reqs[0].header.Get("X-Vcgate-Signature"), "")
}

func TestSendWebhookBlocksInternalAddresses(t *testing.T) {
	is := is.New(t)
	ctx, dbx, st := setup(t)
	srv, requests := recorder(t)

	repoID, err := st.CreateRepo(ctx, dbx, "drupal", "git", "", "ffa", "")
	is.NoErr(err)
	id, err := st.CreateWebhook(ctx, dbx, repoID, srv.URL, "", int(ContentTypeJSON), true)
	is.NoErr(err)
	w, err := st.GetWebhookByID(ctx, dbx, repoID, id)
	is.NoErr(err)

	payload, err := NewEventPayload(ctx, notify.RepositoryEvent(notify.ActionUpdate, testRepo(repoID)))
	is.NoErr(err)
	is.NoErr(SendWebhook(ctx, w, EventRepository, payload))
	is.Equal(len(requests()), 0)

	deliveries, err := st.ListWebhookDeliveriesByWebhookID(ctx, dbx, id)
	is.NoErr(err)
	is.Equal(len(deliveries), 1)
	is.True(deliveries[0].RequestError.Valid)
	is.True(strings.Contains(deliveries[0].RequestError.String, "private"))
	is.True(!deliveries[0].Succeeded())
}

func TestEncodeYAML(t *testing.T) {
	is := is.New(t)
	repo := testRepo(1)
	op, items := testOperation(repo)
	op.Type = proto.OperationTag
	op.Labels = []proto.Label{{Name: "8.x-1.0", Type: proto.LabelTag, Action: proto.ActionAdded}}

	payload, err := NewEventPayload(context.TODO(), notify.OperationEvent(notify.ActionInsert, op, items))
	is.NoErr(err)
	is.Equal(payload.Event(), EventBranchTag)

	b, err := encode(ContentTypeYAML, payload)
	is.NoErr(err)
	var v map[string]any
	is.NoErr(yaml.Unmarshal(b, &v))
	is.Equal(v["event"], "branch_tag")
	is.Equal(v["action"], "insert")

	b, err = encode(ContentTypeForm, payload)
	is.NoErr(err)
	q, err := url.ParseQuery(string(b))
	is.NoErr(err)
	is.Equal(q.Get("operation[tags]"), "8.x-1.0")
	is.Equal(q.Get("operation[type]"), "tag")

	_, err = encode(ContentType(9), payload)
	is.Equal(err, ErrInvalidContentType)
}

func TestNewEventPayloadErrors(t *testing.T) {
	is := is.New(t)
	_, err := NewEventPayload(context.TODO(), notify.Event{Scope: notify.ScopeRepository})
	is.True(err != nil)
	_, err = NewEventPayload(context.TODO(), notify.Event{Scope: notify.ScopeAccount, Repository: testRepo(1)})
	is.True(err != nil)
	_, err = NewEventPayload(context.TODO(), notify.Event{Scope: notify.Scope(9), Repository: testRepo(1)})
	is.Equal(err, notify.ErrInvalidScope)
}
