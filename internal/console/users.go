package console

import (
	"context"

	"toll-console/internal/tollapi"
)

type userForm struct {
	Name        string `form:"name" label:"Name" validate:"required"`
	Email       string `form:"email" label:"Email" validate:"required"`
	PhoneNumber string `form:"phoneNumber" label:"Phone Number" validate:"required"`
}

type usersPage struct {
	*base
	list *listView[tollapi.User]
	form *createForm[tollapi.NewUser, tollapi.User]
}

type UsersState struct {
	Form FormState `json:"form"`
	List ListState `json:"list"`
}

func newUsersPage(b *base) Page {
	p := &usersPage{base: b}

	p.list = newListView(b, "users", b.api().ListUsers)
	p.list.columns = []string{"User ID", "Name", "Email", "Phone Number"}
	p.list.row = func(u tollapi.User) []string {
		return []string{itoa(u.UserID), u.Name, u.Email, u.PhoneNumber}
	}
	p.list.errMsg = "Failed to fetch users. Make sure the backend is running."
	p.list.emptyMsg = "No users found. Create your first user!"

	p.form = newCreateForm(b, userForm{}, func(fields map[string]string) (tollapi.NewUser, string) {
		var f userForm
		if msg := decodeForm(&f, fields); msg != "" {
			return tollapi.NewUser{}, msg
		}
		return tollapi.NewUser{Name: f.Name, Email: f.Email, PhoneNumber: f.PhoneNumber}, ""
	}, func(ctx context.Context, u tollapi.NewUser) (tollapi.User, error) {
		return b.api().CreateUser(ctx, u)
	})
	p.form.success = func(u tollapi.User) string { return `User "` + u.Name + `" created successfully!` }
	p.form.failMsg = "Failed to create user. Please try again."
	p.form.after = func() { p.list.load() }
	return p
}

func (p *usersPage) Mount() { p.list.load() }
func (p *usersPage) Retry() { p.list.load() }
func (p *usersPage) Submit(fields map[string]string) { p.form.submit(fields) }

func (p *usersPage) Snapshot() any {
	return UsersState{Form: p.form.state(), List: p.list.state()}
}
