// Package fakegql is an in-memory GraphQL user service for tests.
//
// It understands the operations the probe scenarios send: getAllUsers,
// getUser, createUser, updateUser, deleteUser, signIn and signUp. Queries are
// parsed with gqlparser; results are projected onto the requested fields.
package fakegql

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// User is a stored user record.
type User struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Gender    string `json:"gender"`
	IPAddress string `json:"ipaddress"`
}

func (u User) fields() map[string]interface{} {
	return map[string]interface{}{
		"id":        u.ID,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"email":     u.Email,
		"gender":    u.Gender,
		"ipaddress": u.IPAddress,
	}
}

// Request is a received envelope.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
	RawVariables  bool                   `json:"-"`
}

type gqlError struct {
	Message string        `json:"message"`
	Path    []interface{} `json:"path,omitempty"`
}

type resolveError string

func (e resolveError) Error() string { return string(e) }

// Server is a running fake endpoint.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	users      map[int]User
	nextID     int
	accounts   map[string]string
	requests   []Request
	failDelete map[int]bool
	status     int
}

// New starts a Server seeded with the four users the read scenarios expect,
// ids 20 to 23. It is closed when the test ends.
func New(t testing.TB) *Server {
	s := &Server{
		users:      make(map[int]User),
		nextID:     100,
		accounts:   make(map[string]string),
		failDelete: make(map[int]bool),
	}
	s.Seed(
		User{ID: 20, FirstName: "Wilbur", LastName: "Hale", Email: "wilbur@example.com", Gender: "Male", IPAddress: "10.0.0.20"},
		User{ID: 21, FirstName: "Oriana", LastName: "Pike", Email: "oriana@example.com", Gender: "Female", IPAddress: "10.0.0.21"},
		User{ID: 22, FirstName: "Brade", LastName: "Moss", Email: "brade@example.com", Gender: "Male", IPAddress: "10.0.0.22"},
		User{ID: 23, FirstName: "Sebastian", LastName: "Vale", Email: "sebastian@example.com", Gender: "Male", IPAddress: "10.0.0.23"},
	)
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Seed stores users as given.
func (s *Server) Seed(users ...User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		s.users[u.ID] = u
	}
}

// User looks a user up by id.
func (s *Server) User(id int) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	return u, ok
}

// Users returns every stored user by id.
func (s *Server) Users() []User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedUsers()
}

// FailDelete makes deleteUser(id) report an error.
func (s *Server) FailDelete(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDelete[id] = true
}

// RespondWith forces every response to use status and an empty body.
// Zero restores normal handling.
func (s *Server) RespondWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Requests returns the envelopes received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) sortedUsers() []User {
	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	var req Request
	_ = json.Unmarshal(raw["query"], &req.Query)
	_ = json.Unmarshal(raw["operationName"], &req.OperationName)
	if v, ok := raw["variables"]; ok {
		req.RawVariables = string(v) != "null"
		_ = json.Unmarshal(v, &req.Variables)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)

	if s.status != 0 {
		w.WriteHeader(s.status)
		return
	}

	data, errs := s.execute(req)
	body := map[string]interface{}{"data": data}
	if len(errs) > 0 {
		body["errors"] = errs
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) execute(req Request) (map[string]interface{}, []gqlError) {
	doc, err := parser.ParseQuery(&ast.Source{Input: req.Query})
	if err != nil {
		return nil, []gqlError{{Message: err.Error()}}
	}

	var op *ast.OperationDefinition
	if req.OperationName != "" {
		op = doc.Operations.ForName(req.OperationName)
	} else if len(doc.Operations) == 1 {
		op = doc.Operations[0]
	}
	if op == nil {
		return nil, []gqlError{{Message: "could not determine operation"}}
	}

	data := make(map[string]interface{})
	var errs []gqlError
	for _, sel := range op.SelectionSet {
		field, ok := sel.(*ast.Field)
		if !ok {
			continue
		}
		key := field.Alias
		if key == "" {
			key = field.Name
		}

		args := make(map[string]interface{}, len(field.Arguments))
		for _, a := range field.Arguments {
			v, err := a.Value.Value(req.Variables)
			if err != nil {
				errs = append(errs, gqlError{Message: err.Error(), Path: []interface{}{key}})
				continue
			}
			args[a.Name] = v
		}

		value, err := s.resolve(op.Operation, field.Name, args)
		if err == nil {
			value, err = project(value, field.SelectionSet)
		}
		if err != nil {
			data[key] = nil
			errs = append(errs, gqlError{Message: err.Error(), Path: []interface{}{key}})
			continue
		}
		data[key] = value
	}
	return data, errs
}

func (s *Server) resolve(kind ast.Operation, name string, args map[string]interface{}) (interface{}, error) {
	switch kind {
	case ast.Query:
		switch name {
		case "getAllUsers":
			users := s.sortedUsers()
			out := make([]interface{}, 0, len(users))
			for _, u := range users {
				out = append(out, u.fields())
			}
			return out, nil
		case "getUser":
			u, ok := s.users[intArg(args, "id")]
			if !ok {
				return nil, nil
			}
			return u.fields(), nil
		}
	case ast.Mutation:
		switch name {
		case "createUser":
			s.nextID++
			u := User{
				ID:        s.nextID,
				FirstName: stringArg(args, "firstName"),
				LastName:  stringArg(args, "lastName"),
				Email:     stringArg(args, "email"),
				Gender:    stringArg(args, "gender"),
				IPAddress: stringArg(args, "ipaddress"),
			}
			if u.FirstName == "" || u.LastName == "" {
				return nil, resolveError("firstName and lastName are required")
			}
			s.users[u.ID] = u
			return u.fields(), nil
		case "updateUser":
			id := intArg(args, "id")
			u, ok := s.users[id]
			if !ok {
				return nil, resolveError(fmt.Sprintf("User not found: %d", id))
			}
			if v, ok := args["firstName"].(string); ok {
				u.FirstName = v
			}
			if v, ok := args["lastName"].(string); ok {
				u.LastName = v
			}
			if v, ok := args["email"].(string); ok {
				u.Email = v
			}
			s.users[id] = u
			return u.fields(), nil
		case "deleteUser":
			id := intArg(args, "id")
			if s.failDelete[id] {
				return nil, resolveError(fmt.Sprintf("cannot delete user %d", id))
			}
			u, ok := s.users[id]
			if !ok {
				return nil, resolveError(fmt.Sprintf("User not found: %d", id))
			}
			delete(s.users, id)
			return u.fields(), nil
		case "signUp":
			username, password := stringArg(args, "username"), stringArg(args, "password")
			if username == "" || password == "" {
				return nil, resolveError("username and password are required")
			}
			if _, taken := s.accounts[username]; taken {
				return nil, resolveError(fmt.Sprintf("username %s already exists", username))
			}
			s.accounts[username] = password
			return map[string]interface{}{"username": username, "authToken": token(username)}, nil
		case "signIn":
			username, authToken := stringArg(args, "username"), stringArg(args, "authToken")
			if username == "" || authToken == "" {
				return nil, resolveError("username and authToken are required")
			}
			return token(username), nil
		}
	}
	return nil, resolveError(fmt.Sprintf("Cannot query field %q on type %q", name, kind))
}

// project keeps only the selected fields. Object results need a selection,
// scalar results must not have one.
func project(value interface{}, set ast.SelectionSet) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		out := make([]interface{}, 0, len(v))
		for _, elem := range v {
			p, err := project(elem, set)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	case map[string]interface{}:
		if len(set) == 0 {
			return nil, resolveError("field of object type must have a selection of subfields")
		}
		out := make(map[string]interface{}, len(set))
		for _, sel := range set {
			f, ok := sel.(*ast.Field)
			if !ok {
				continue
			}
			fv, ok := v[f.Name]
			if !ok {
				return nil, resolveError(fmt.Sprintf("Cannot query field %q", f.Name))
			}
			key := f.Alias
			if key == "" {
				key = f.Name
			}
			out[key] = fv
		}
		return out, nil
	default:
		if len(set) > 0 {
			return nil, resolveError("field of scalar type must not have a selection of subfields")
		}
		return v, nil
	}
}

func token(username string) string {
	return "tok_" + username + "_" + uuid.NewString()[:8]
}

func intArg(args map[string]interface{}, name string) int {
	switch v := args[name].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func stringArg(args map[string]interface{}, name string) string {
	s, _ := args[name].(string)
	return s
}
