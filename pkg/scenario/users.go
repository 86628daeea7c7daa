package scenario

import (
	"context"
	"fmt"

	"github.com/saturnines/gqlprobe/pkg/errors"
	"github.com/saturnines/gqlprobe/pkg/extract"
	"github.com/saturnines/gqlprobe/pkg/harness"
	"github.com/saturnines/gqlprobe/pkg/transport/graphql"
)

// userFields is every field of the User type.
var userFields = []string{"id", "firstName", "lastName", "email", "gender", "ipaddress"}

// ExpectedUsers are first names the service is seeded with.
var ExpectedUsers = []string{"Wilbur", "Oriana", "Brade", "Sebastian"}

const (
	updatedFirstName  = "Denver"
	verifiedFirstName = "John McKenzie"
)

func mismatch(what string, want, got interface{}) error {
	return errors.WrapError(fmt.Errorf("%s: expected %v, got %v", what, want, got), errors.ErrValidation, "assert")
}

func getAllUsers(s *harness.Scenario, fields ...string) *graphql.Builder {
	return s.NewBuilder().QueryOperation("getAllUsers").Fields(fields...)
}

// GetAllUsers reads the first name of every user.
func GetAllUsers(ctx context.Context, s *harness.Scenario) error {
	s.Log("building query to get all users")
	resp, err := s.Execute(ctx, getAllUsers(s, "firstName", "id"))
	if err != nil {
		return err
	}
	if err := s.AssertValid(resp); err != nil {
		return err
	}

	v, err := s.Require(resp, "data.getAllUsers.firstName")
	if err != nil {
		return err
	}
	names, ok := extract.Strings(v)
	if !ok || len(names) == 0 {
		return mismatch("first names", "a non-empty list", v)
	}
	s.Log("retrieved users", "count", len(names))
	return nil
}

// ValidateMultipleContent checks every expected first name is present.
func ValidateMultipleContent(ctx context.Context, s *harness.Scenario) error {
	resp, err := s.Execute(ctx, getAllUsers(s, "firstName", "id"))
	if err != nil {
		return err
	}
	if err := s.AssertValid(resp); err != nil {
		return err
	}

	v, err := s.Require(resp, "data.getAllUsers.firstName")
	if err != nil {
		return err
	}
	names, _ := extract.Strings(v)
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	var missing []string
	for _, want := range ExpectedUsers {
		if !present[want] {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return mismatch("users present", ExpectedUsers, fmt.Sprintf("missing %v", missing))
	}
	s.Log("validated user names", "names", ExpectedUsers)
	return nil
}

// CreateUser creates a user from generated data, checks the echoed fields
// and tracks it for deletion.
func CreateUser(ctx context.Context, s *harness.Scenario) error {
	user := s.Data().UserWithPrefix("CreateTest")
	s.Log("creating user", "firstName", user.FirstName)

	resp, err := s.Execute(ctx, s.NewBuilder().
		MutationOperation("createUser").
		Arguments(user.Arguments()...).
		Fields(userFields...))
	if err != nil {
		return err
	}
	if err := s.AssertValid(resp); err != nil {
		return err
	}

	id, err := s.RequireInt(resp, "data.createUser.id")
	if err != nil {
		return err
	}
	s.Track(id)

	checks := []struct{ path, want string }{
		{"data.createUser.firstName", user.FirstName},
		{"data.createUser.lastName", user.LastName},
		{"data.createUser.email", user.Email},
	}
	for _, c := range checks {
		got, err := s.RequireString(resp, c.path)
		if err != nil {
			return err
		}
		if got != c.want {
			return mismatch(c.path, c.want, got)
		}
	}

	s.Log("user created", "id", id)
	return nil
}

func updateFirstName(ctx context.Context, s *harness.Scenario, id int, firstName string) (*graphql.Response, error) {
	resp, err := s.Execute(ctx, s.NewBuilder().
		MutationOperation("updateUser").
		Argument("id", id).
		Argument("firstName", firstName).
		Fields(userFields...))
	if err != nil {
		return nil, err
	}
	return resp, s.AssertValid(resp)
}

// UpdateUser renames the configured test user.
func UpdateUser(ctx context.Context, s *harness.Scenario) error {
	id := s.Settings().TestUserID
	s.Log("updating user", "id", id)

	resp, err := updateFirstName(ctx, s, id, updatedFirstName)
	if err != nil {
		return err
	}

	gotID, err := s.RequireInt(resp, "data.updateUser.id")
	if err != nil {
		return err
	}
	if gotID != id {
		return mismatch("user id", id, gotID)
	}
	name, err := s.RequireString(resp, "data.updateUser.firstName")
	if err != nil {
		return err
	}
	if name != updatedFirstName {
		return mismatch("first name", updatedFirstName, name)
	}

	s.Log("user updated", "firstName", name)
	return nil
}

func firstNameOf(ctx context.Context, s *harness.Scenario, id int) (string, error) {
	resp, err := s.Execute(ctx, getAllUsers(s, userFields...))
	if err != nil {
		return "", err
	}
	if err := s.AssertValid(resp); err != nil {
		return "", err
	}

	users, _ := s.Extract(resp, "data.getAllUsers")
	user, ok, err := extract.Find(users, fmt.Sprintf("it.id == %d", id))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.WrapError(fmt.Errorf("user %d not in getAllUsers", id), errors.ErrExtraction, "find user")
	}
	v, _ := extract.Path(user, "firstName")
	name, _ := extract.String(v)
	return name, nil
}

// UpdateUserWithGet reads the configured user, renames it, and reads it back.
func UpdateUserWithGet(ctx context.Context, s *harness.Scenario) error {
	id := s.Settings().TestUserID

	s.Log("step 1: reading user before update", "id", id)
	before, err := firstNameOf(ctx, s, id)
	if err != nil {
		return err
	}

	// A previous run may have left the target name in place.
	newName := verifiedFirstName
	if before == newName {
		newName = s.Data().FirstName()
	}

	s.Log("step 2: updating user", "id", id, "firstName", newName)
	if _, err := updateFirstName(ctx, s, id, newName); err != nil {
		return err
	}

	s.Log("step 3: verifying update")
	after, err := firstNameOf(ctx, s, id)
	if err != nil {
		return err
	}
	if after != newName {
		return mismatch("first name after update", newName, after)
	}
	if after == before {
		return mismatch("first name change", "a different name than "+before, after)
	}
	return nil
}

// DeleteUser creates its own user and deletes it, so no shared record is
// destroyed.
func DeleteUser(ctx context.Context, s *harness.Scenario) error {
	user := s.Data().UserWithPrefix("DeleteTest")
	resp, err := s.Execute(ctx, s.NewBuilder().
		MutationOperation("createUser").
		Arguments(user.Arguments()...).
		Fields("id"))
	if err != nil {
		return err
	}
	if err := s.AssertValid(resp); err != nil {
		return err
	}
	id, err := s.RequireInt(resp, "data.createUser.id")
	if err != nil {
		return err
	}
	s.Log("created user to delete", "id", id)

	resp, err = s.Execute(ctx, s.NewBuilder().
		MutationOperation("deleteUser").
		Argument("id", id).
		Fields(userFields...))
	if err == nil {
		err = s.AssertValid(resp)
	}
	if err != nil {
		// Leave it to teardown.
		s.Track(id)
		return err
	}

	deleted, err := s.RequireInt(resp, "data.deleteUser.id")
	if err != nil {
		return err
	}
	if deleted != id {
		return mismatch("deleted id", id, deleted)
	}
	s.Log("user deleted", "id", deleted)
	return nil
}
