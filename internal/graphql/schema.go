package graphql

import (
	"log/slog"

	"github.com/graphql-go/graphql"

	"github.com/yourorg/taskboard/internal/domain"
	"github.com/yourorg/taskboard/internal/security/audit"
	"github.com/yourorg/taskboard/internal/security/middleware"
	"github.com/yourorg/taskboard/internal/service"
)

// Resolvers bundles the services the schema delegates to.
type Resolvers struct {
	Users  *service.UserService
	Tasks  *service.TaskService
	Audit  *audit.Logger
	Logger *slog.Logger
}

// NewSchema builds the executable schema over the given resolvers.
func NewSchema(r *Resolvers) (graphql.Schema, error) {
	if r.Logger == nil {
		r.Logger = slog.Default()
	}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{
				Type: userType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					user := middleware.CurrentUser(p.Context)
					if user == nil {
						return nil, nil
					}
					return user, nil
				},
			},
			"tasks": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(taskType))),
				Resolve: Authenticated(func(p graphql.ResolveParams, user *domain.PublicUser) (interface{}, error) {
					return r.Tasks.GetUserTasks(user.ID)
				}),
			},
			"task": &graphql.Field{
				Type: taskType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: Authenticated(func(p graphql.ResolveParams, user *domain.PublicUser) (interface{}, error) {
					return r.Tasks.GetUserTask(p.Args["id"].(string), user.ID)
				}),
			},
			"taskCounts": &graphql.Field{
				Type: graphql.NewNonNull(taskCountsType),
				Resolve: Authenticated(func(p graphql.ResolveParams, user *domain.PublicUser) (interface{}, error) {
					return r.Tasks.GetTaskCountsByStatus(user.ID)
				}),
			},
			"searchTasks": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(taskType))),
				Args: graphql.FieldConfigArgument{
					"term": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: Authenticated(func(p graphql.ResolveParams, user *domain.PublicUser) (interface{}, error) {
					return r.Tasks.SearchUserTasks(user.ID, p.Args["term"].(string))
				}),
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"register": &graphql.Field{
				Type: graphql.NewNonNull(authPayloadType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(registerInput)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					input := inputMap(p)
					payload, err := r.Users.Register(
						stringField(input, "username"),
						stringField(input, "email"),
						stringField(input, "password"),
					)
					if err != nil {
						r.Audit.LogAuth(p.Context, "", "register", "failed")
						return nil, err
					}
					r.Audit.LogAuth(p.Context, payload.User.ID, "register", "success")
					return payload, nil
				},
			},
			"login": &graphql.Field{
				Type: graphql.NewNonNull(authPayloadType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(loginInput)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					input := inputMap(p)
					payload, err := r.Users.Login(
						stringField(input, "email"),
						stringField(input, "password"),
					)
					if err != nil {
						r.Audit.LogAuth(p.Context, "", "login", "failed")
						return nil, err
					}
					r.Audit.LogAuth(p.Context, payload.User.ID, "login", "success")
					return payload, nil
				},
			},
			"createTask": &graphql.Field{
				Type: graphql.NewNonNull(taskType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(createTaskInput)},
				},
				Resolve: Authenticated(func(p graphql.ResolveParams, user *domain.PublicUser) (interface{}, error) {
					input := inputMap(p)
					task, err := r.Tasks.CreateTask(service.CreateTaskInput{
						Title:       stringField(input, "title"),
						Description: stringField(input, "description"),
						Status:      statusField(input, "status"),
					}, user.ID)
					if err != nil {
						return nil, err
					}
					r.Audit.LogTaskMutation(p.Context, user.ID, "create", task.ID, "success")
					return task, nil
				}),
			},
			"updateTask": &graphql.Field{
				Type: graphql.NewNonNull(taskType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(updateTaskInput)},
				},
				Resolve: Authenticated(func(p graphql.ResolveParams, user *domain.PublicUser) (interface{}, error) {
					input := inputMap(p)
					task, err := r.Tasks.UpdateTask(service.UpdateTaskInput{
						ID:          stringField(input, "id"),
						Title:       optionalStringField(input, "title"),
						Description: optionalStringField(input, "description"),
					}, user.ID)
					if err != nil {
						return nil, err
					}
					r.Audit.LogTaskMutation(p.Context, user.ID, "update", task.ID, "success")
					return task, nil
				}),
			},
			"updateTaskStatus": &graphql.Field{
				Type: graphql.NewNonNull(taskType),
				Args: graphql.FieldConfigArgument{
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(updateTaskStatusInput)},
				},
				Resolve: Authenticated(func(p graphql.ResolveParams, user *domain.PublicUser) (interface{}, error) {
					input := inputMap(p)
					task, err := r.Tasks.UpdateTaskStatus(
						stringField(input, "id"),
						statusField(input, "status"),
						user.ID,
					)
					if err != nil {
						return nil, err
					}
					r.Audit.LogTaskMutation(p.Context, user.ID, "update_status", task.ID, "success")
					return task, nil
				}),
			},
			"archiveTask": &graphql.Field{
				Type: graphql.NewNonNull(taskType),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: Authenticated(func(p graphql.ResolveParams, user *domain.PublicUser) (interface{}, error) {
					task, err := r.Tasks.ArchiveTask(p.Args["id"].(string), user.ID)
					if err != nil {
						return nil, err
					}
					r.Audit.LogTaskMutation(p.Context, user.ID, "archive", task.ID, "success")
					return task, nil
				}),
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

func inputMap(p graphql.ResolveParams) map[string]interface{} {
	m, _ := p.Args["input"].(map[string]interface{})
	return m
}

func stringField(input map[string]interface{}, key string) string {
	v, _ := input[key].(string)
	return v
}

func optionalStringField(input map[string]interface{}, key string) *string {
	if v, ok := input[key].(string); ok {
		return &v
	}
	return nil
}

func statusField(input map[string]interface{}, key string) domain.TaskStatus {
	if v, ok := input[key].(domain.TaskStatus); ok {
		return v
	}
	return domain.StatusTodo
}
