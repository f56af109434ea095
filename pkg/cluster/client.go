package cluster

import (
	"context"
)

// Pod is the subset of pod state the orchestrator consumes.
type Pod struct {
	Name   string
	Phase  string
	Ready  bool
	Labels map[string]string
}

// Secret is an opaque named payload stored in the cluster.
type Secret struct {
	Name string
	Data map[string][]byte
}

// PortForward is a handle to an open local-to-pod port forward. Callers
// must close it on every exit path; a leaked forward holds a local port.
type PortForward interface {
	LocalPort() int
	Close() error
}

// PathFilter decides whether a relative path participates in a copy.
type PathFilter func(path string) bool

// Client is the Kubernetes collaborator boundary. hivectl sequences calls
// against it but never reimplements cluster behavior.
type Client interface {
	// Namespaces
	NamespaceExists(ctx context.Context, namespace string) (bool, error)
	ListNamespaces(ctx context.Context) ([]string, error)
	CreateNamespace(ctx context.Context, namespace string) error
	DeleteNamespace(ctx context.Context, namespace string) error

	// Pods
	ListPods(ctx context.Context, namespace, labelSelector string) ([]Pod, error)
	DeletePod(ctx context.Context, namespace, name string) error
	ExecInPod(ctx context.Context, namespace, pod, container string, command []string) (string, error)
	CopyToPod(ctx context.Context, namespace, pod, container, localPath, remotePath string, filter PathFilter) error
	CopyFromPod(ctx context.Context, namespace, pod, container, remotePath, localPath string) error
	PortForwardPod(ctx context.Context, namespace, pod string, localPort, remotePort int) (PortForward, error)

	// Storage
	ListPVCs(ctx context.Context, namespace, labelSelector string) ([]string, error)
	DeletePVC(ctx context.Context, namespace, name string) error

	// Secrets
	GetSecret(ctx context.Context, namespace, name string) (*Secret, error)
	CreateSecret(ctx context.Context, namespace string, secret *Secret) error
	DeleteSecret(ctx context.Context, namespace, name string) error

	// RBAC
	CreateClusterRole(ctx context.Context, name string, rules []string) error
	CreateClusterRoleBinding(ctx context.Context, name, role, serviceAccount string) error
	DeleteClusterRole(ctx context.Context, name string) error
}
