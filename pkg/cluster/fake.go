package cluster

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Client used by tests and --dry-run style flows.
// It records exec and copy calls so tests can assert on the sequence of
// cluster mutations an operation performs.
type Fake struct {
	mu sync.Mutex

	Namespaces map[string]bool
	Pods       map[string][]Pod      // namespace -> pods
	PVCs       map[string][]string   // namespace -> pvc names
	Secrets    map[string][]*Secret  // namespace -> secrets
	ExecOut    map[string]string     // command key -> canned stdout
	Deleted    map[string][]string   // "pod"/"pvc"/"secret" -> names

	Roles    map[string][]string // cluster role -> rules
	Bindings []RoleBinding

	ExecCalls []ExecCall
	CopyCalls []CopyCall

	// OpenForwards counts port-forwards that were opened but not closed.
	OpenForwards int

	// ForwardPort, when set, picks the local port a forward reports.
	// Tests use it to route status scrapes at a stub server.
	ForwardPort func(requested int) int
}

// RoleBinding records one CreateClusterRoleBinding invocation.
type RoleBinding struct {
	Name           string
	Role           string
	ServiceAccount string
}

// ExecCall records one ExecInPod invocation.
type ExecCall struct {
	Namespace string
	Pod       string
	Command   []string
}

// CopyCall records one CopyToPod or CopyFromPod invocation.
type CopyCall struct {
	Namespace string
	Pod       string
	Local     string
	Remote    string
	ToPod     bool
}

// NewFake creates an empty fake cluster client.
func NewFake() *Fake {
	return &Fake{
		Namespaces: make(map[string]bool),
		Pods:       make(map[string][]Pod),
		PVCs:       make(map[string][]string),
		Secrets:    make(map[string][]*Secret),
		ExecOut:    make(map[string]string),
		Deleted:    make(map[string][]string),
		Roles:      make(map[string][]string),
	}
}

// AddPod registers a pod in a namespace.
func (f *Fake) AddPod(namespace string, pod Pod) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Pods[namespace] = append(f.Pods[namespace], pod)
}

func (f *Fake) NamespaceExists(ctx context.Context, namespace string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Namespaces[namespace], nil
}

func (f *Fake) ListNamespaces(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for ns, present := range f.Namespaces {
		if present {
			names = append(names, ns)
		}
	}
	return names, nil
}

func (f *Fake) CreateNamespace(ctx context.Context, namespace string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Namespaces[namespace] = true
	return nil
}

func (f *Fake) DeleteNamespace(ctx context.Context, namespace string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Namespaces, namespace)
	return nil
}

func (f *Fake) ListPods(ctx context.Context, namespace, labelSelector string) ([]Pod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if labelSelector == "" {
		return append([]Pod(nil), f.Pods[namespace]...), nil
	}
	var matched []Pod
	for _, pod := range f.Pods[namespace] {
		if matchesSelector(pod.Labels, labelSelector) {
			matched = append(matched, pod)
		}
	}
	return matched, nil
}

func (f *Fake) DeletePod(ctx context.Context, namespace, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	pods := f.Pods[namespace]
	for i, pod := range pods {
		if pod.Name == name {
			f.Pods[namespace] = append(pods[:i:i], pods[i+1:]...)
			f.Deleted["pod"] = append(f.Deleted["pod"], name)
			return nil
		}
	}
	return fmt.Errorf("pod %s not found in %s", name, namespace)
}

func (f *Fake) ExecInPod(ctx context.Context, namespace, pod, container string, command []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ExecCalls = append(f.ExecCalls, ExecCall{Namespace: namespace, Pod: pod, Command: command})
	if len(command) > 0 {
		if out, ok := f.ExecOut[command[0]]; ok {
			return out, nil
		}
	}
	return "", nil
}

func (f *Fake) CopyToPod(ctx context.Context, namespace, pod, container, localPath, remotePath string, filter PathFilter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CopyCalls = append(f.CopyCalls, CopyCall{Namespace: namespace, Pod: pod, Local: localPath, Remote: remotePath, ToPod: true})
	return nil
}

func (f *Fake) CopyFromPod(ctx context.Context, namespace, pod, container, remotePath, localPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CopyCalls = append(f.CopyCalls, CopyCall{Namespace: namespace, Pod: pod, Local: localPath, Remote: remotePath, ToPod: false})
	return nil
}

type fakeForward struct {
	f    *Fake
	port int
	once sync.Once
}

func (p *fakeForward) LocalPort() int { return p.port }

func (p *fakeForward) Close() error {
	p.once.Do(func() {
		p.f.mu.Lock()
		p.f.OpenForwards--
		p.f.mu.Unlock()
	})
	return nil
}

func (f *Fake) PortForwardPod(ctx context.Context, namespace, pod string, localPort, remotePort int) (PortForward, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.OpenForwards++
	port := localPort
	if f.ForwardPort != nil {
		port = f.ForwardPort(localPort)
	}
	return &fakeForward{f: f, port: port}, nil
}

func (f *Fake) ListPVCs(ctx context.Context, namespace, labelSelector string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.PVCs[namespace]...), nil
}

func (f *Fake) DeletePVC(ctx context.Context, namespace, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	pvcs := f.PVCs[namespace]
	for i, pvc := range pvcs {
		if pvc == name {
			f.PVCs[namespace] = append(pvcs[:i:i], pvcs[i+1:]...)
			f.Deleted["pvc"] = append(f.Deleted["pvc"], name)
			return nil
		}
	}
	return fmt.Errorf("pvc %s not found in %s", name, namespace)
}

func (f *Fake) GetSecret(ctx context.Context, namespace, name string) (*Secret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, secret := range f.Secrets[namespace] {
		if secret.Name == name {
			return secret, nil
		}
	}
	return nil, fmt.Errorf("secret %s not found in %s", name, namespace)
}

func (f *Fake) CreateSecret(ctx context.Context, namespace string, secret *Secret) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Secrets[namespace] = append(f.Secrets[namespace], secret)
	return nil
}

func (f *Fake) DeleteSecret(ctx context.Context, namespace, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	secrets := f.Secrets[namespace]
	for i, secret := range secrets {
		if secret.Name == name {
			f.Secrets[namespace] = append(secrets[:i:i], secrets[i+1:]...)
			f.Deleted["secret"] = append(f.Deleted["secret"], name)
			return nil
		}
	}
	return fmt.Errorf("secret %s not found in %s", name, namespace)
}

func (f *Fake) CreateClusterRole(ctx context.Context, name string, rules []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Roles[name] = append([]string(nil), rules...)
	return nil
}

func (f *Fake) CreateClusterRoleBinding(ctx context.Context, name, role, serviceAccount string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Bindings = append(f.Bindings, RoleBinding{Name: name, Role: role, ServiceAccount: serviceAccount})
	return nil
}

func (f *Fake) DeleteClusterRole(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.Roles[name]; !ok {
		return fmt.Errorf("cluster role %s not found", name)
	}
	delete(f.Roles, name)
	f.Deleted["clusterrole"] = append(f.Deleted["clusterrole"], name)
	return nil
}

// matchesSelector supports the "key=value" and "key=value,key2=value2"
// selector forms the orchestrator uses.
func matchesSelector(labels map[string]string, selector string) bool {
	for _, clause := range splitSelector(selector) {
		key, value, ok := cutSelector(clause)
		if !ok {
			return false
		}
		if labels[key] != value {
			return false
		}
	}
	return true
}

func splitSelector(selector string) []string {
	var clauses []string
	start := 0
	for i := 0; i <= len(selector); i++ {
		if i == len(selector) || selector[i] == ',' {
			if i > start {
				clauses = append(clauses, selector[start:i])
			}
			start = i + 1
		}
	}
	return clauses
}

func cutSelector(clause string) (key, value string, ok bool) {
	for i := 0; i < len(clause); i++ {
		if clause[i] == '=' {
			return clause[:i], clause[i+1:], true
		}
	}
	return "", "", false
}
