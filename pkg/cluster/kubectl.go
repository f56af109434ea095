package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hiveops/hivectl/pkg/log"
)

// Kubectl is a thin Client implementation that shells out to kubectl.
// It delegates all cluster behavior to the CLI; hivectl only sequences
// the calls.
type Kubectl struct {
	// Kubeconfig overrides the default kubeconfig resolution when set.
	Kubeconfig string

	logger zerolog.Logger
}

// NewKubectl creates a kubectl-backed cluster client.
func NewKubectl(kubeconfig string) *Kubectl {
	return &Kubectl{
		Kubeconfig: kubeconfig,
		logger:     log.WithComponent("kubectl"),
	}
}

func (k *Kubectl) run(ctx context.Context, args ...string) (string, error) {
	if k.Kubeconfig != "" {
		args = append([]string{"--kubeconfig", k.Kubeconfig}, args...)
	}
	k.logger.Debug().Strs("args", args).Msg("kubectl")

	out, err := exec.CommandContext(ctx, "kubectl", args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("kubectl %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// NamespaceExists reports whether the namespace is present.
func (k *Kubectl) NamespaceExists(ctx context.Context, namespace string) (bool, error) {
	namespaces, err := k.ListNamespaces(ctx)
	if err != nil {
		return false, err
	}
	for _, ns := range namespaces {
		if ns == namespace {
			return true, nil
		}
	}
	return false, nil
}

// ListNamespaces returns all namespace names.
func (k *Kubectl) ListNamespaces(ctx context.Context) ([]string, error) {
	out, err := k.run(ctx, "get", "namespaces", "-o", "jsonpath={.items[*].metadata.name}")
	if err != nil {
		return nil, err
	}
	return strings.Fields(out), nil
}

// CreateNamespace creates a namespace.
func (k *Kubectl) CreateNamespace(ctx context.Context, namespace string) error {
	_, err := k.run(ctx, "create", "namespace", namespace)
	return err
}

// DeleteNamespace deletes a namespace and waits for removal.
func (k *Kubectl) DeleteNamespace(ctx context.Context, namespace string) error {
	_, err := k.run(ctx, "delete", "namespace", namespace, "--wait=true")
	return err
}

type podJSON struct {
	Metadata struct {
		Name   string            `json:"name"`
		Labels map[string]string `json:"labels"`
	} `json:"metadata"`
	Status struct {
		Phase      string `json:"phase"`
		Conditions []struct {
			Type   string `json:"type"`
			Status string `json:"status"`
		} `json:"conditions"`
	} `json:"status"`
}

// ListPods returns pods matching the label selector.
func (k *Kubectl) ListPods(ctx context.Context, namespace, labelSelector string) ([]Pod, error) {
	args := []string{"get", "pods", "-n", namespace, "-o", "json"}
	if labelSelector != "" {
		args = append(args, "-l", labelSelector)
	}
	out, err := k.run(ctx, args...)
	if err != nil {
		return nil, err
	}

	var list struct {
		Items []podJSON `json:"items"`
	}
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		return nil, fmt.Errorf("failed to parse pod list: %w", err)
	}

	pods := make([]Pod, 0, len(list.Items))
	for _, item := range list.Items {
		pod := Pod{
			Name:   item.Metadata.Name,
			Phase:  item.Status.Phase,
			Labels: item.Metadata.Labels,
		}
		for _, cond := range item.Status.Conditions {
			if cond.Type == "Ready" && cond.Status == "True" {
				pod.Ready = true
			}
		}
		pods = append(pods, pod)
	}
	return pods, nil
}

// DeletePod deletes a pod by name.
func (k *Kubectl) DeletePod(ctx context.Context, namespace, name string) error {
	_, err := k.run(ctx, "delete", "pod", "-n", namespace, name)
	return err
}

// ExecInPod runs a command inside a pod container and returns stdout.
func (k *Kubectl) ExecInPod(ctx context.Context, namespace, pod, container string, command []string) (string, error) {
	args := []string{"exec", "-n", namespace, pod}
	if container != "" {
		args = append(args, "-c", container)
	}
	args = append(args, "--")
	args = append(args, command...)
	return k.run(ctx, args...)
}

// CopyToPod copies a local file or directory into a pod. The filter, when
// set, is applied by staging the tree through a temp directory; kubectl cp
// itself has no exclude support.
func (k *Kubectl) CopyToPod(ctx context.Context, namespace, pod, container, localPath, remotePath string, filter PathFilter) error {
	src := localPath
	if filter != nil {
		staged, cleanup, err := stageFiltered(localPath, filter)
		if err != nil {
			return err
		}
		defer cleanup()
		src = staged
	}

	args := []string{"cp", src, fmt.Sprintf("%s/%s:%s", namespace, pod, remotePath)}
	if container != "" {
		args = append(args, "-c", container)
	}
	_, err := k.run(ctx, args...)
	return err
}

// CopyFromPod copies a remote file or directory out of a pod.
func (k *Kubectl) CopyFromPod(ctx context.Context, namespace, pod, container, remotePath, localPath string) error {
	args := []string{"cp", fmt.Sprintf("%s/%s:%s", namespace, pod, remotePath), localPath}
	if container != "" {
		args = append(args, "-c", container)
	}
	_, err := k.run(ctx, args...)
	return err
}

// kubectlPortForward wraps a long-running kubectl port-forward process.
type kubectlPortForward struct {
	cmd       *exec.Cmd
	localPort int
}

func (p *kubectlPortForward) LocalPort() int { return p.localPort }

func (p *kubectlPortForward) Close() error {
	if p.cmd.Process == nil {
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil {
		return err
	}
	_ = p.cmd.Wait()
	return nil
}

// PortForwardPod opens a local port forward to a pod port. The handle must
// be closed by the caller on every exit path.
func (k *Kubectl) PortForwardPod(ctx context.Context, namespace, pod string, localPort, remotePort int) (PortForward, error) {
	args := []string{"port-forward", "-n", namespace, "pod/" + pod,
		fmt.Sprintf("%d:%d", localPort, remotePort)}
	if k.Kubeconfig != "" {
		args = append([]string{"--kubeconfig", k.Kubeconfig}, args...)
	}

	cmd := exec.CommandContext(ctx, "kubectl", args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start port-forward: %w", err)
	}

	pf := &kubectlPortForward{cmd: cmd, localPort: localPort}

	// Wait for the forward to accept connections before handing it out.
	addr := fmt.Sprintf("127.0.0.1:%d", localPort)
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 250*time.Millisecond)
		if err == nil {
			conn.Close()
			return pf, nil
		}
		select {
		case <-ctx.Done():
			_ = pf.Close()
			return nil, ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}

	_ = pf.Close()
	return nil, fmt.Errorf("port-forward to %s/%s did not become reachable", namespace, pod)
}

// ListPVCs returns PVC names matching the label selector.
func (k *Kubectl) ListPVCs(ctx context.Context, namespace, labelSelector string) ([]string, error) {
	args := []string{"get", "pvc", "-n", namespace, "-o", "jsonpath={.items[*].metadata.name}"}
	if labelSelector != "" {
		args = append(args, "-l", labelSelector)
	}
	out, err := k.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return strings.Fields(out), nil
}

// DeletePVC deletes a PVC by name.
func (k *Kubectl) DeletePVC(ctx context.Context, namespace, name string) error {
	_, err := k.run(ctx, "delete", "pvc", "-n", namespace, name)
	return err
}

// GetSecret fetches a secret's data.
func (k *Kubectl) GetSecret(ctx context.Context, namespace, name string) (*Secret, error) {
	out, err := k.run(ctx, "get", "secret", "-n", namespace, name, "-o", "json")
	if err != nil {
		return nil, err
	}
	var secret struct {
		Metadata struct {
			Name string `json:"name"`
		} `json:"metadata"`
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &secret); err != nil {
		return nil, fmt.Errorf("failed to parse secret: %w", err)
	}
	data := make(map[string][]byte, len(secret.Data))
	for key, value := range secret.Data {
		decoded, err := decodeBase64(value)
		if err != nil {
			return nil, fmt.Errorf("secret %s key %s: %w", name, key, err)
		}
		data[key] = decoded
	}
	return &Secret{Name: secret.Metadata.Name, Data: data}, nil
}

// CreateSecret creates a generic secret from the given data.
func (k *Kubectl) CreateSecret(ctx context.Context, namespace string, secret *Secret) error {
	args := []string{"create", "secret", "generic", secret.Name, "-n", namespace}
	for key, value := range secret.Data {
		args = append(args, fmt.Sprintf("--from-literal=%s=%s", key, value))
	}
	_, err := k.run(ctx, args...)
	return err
}

// DeleteSecret deletes a secret by name.
func (k *Kubectl) DeleteSecret(ctx context.Context, namespace, name string) error {
	_, err := k.run(ctx, "delete", "secret", "-n", namespace, name)
	return err
}

// CreateClusterRole creates a cluster role from rule strings of the form
// "apiGroup:resource:verb,verb".
func (k *Kubectl) CreateClusterRole(ctx context.Context, name string, rules []string) error {
	args := []string{"create", "clusterrole", name}
	for _, rule := range rules {
		parts := strings.SplitN(rule, ":", 3)
		if len(parts) != 3 {
			return fmt.Errorf("invalid cluster role rule %q: expected apiGroup:resource:verbs", rule)
		}
		args = append(args, "--resource="+parts[1], "--verb="+parts[2])
	}
	_, err := k.run(ctx, args...)
	return err
}

// CreateClusterRoleBinding binds a cluster role to a service account.
func (k *Kubectl) CreateClusterRoleBinding(ctx context.Context, name, role, serviceAccount string) error {
	_, err := k.run(ctx, "create", "clusterrolebinding", name,
		"--clusterrole="+role, "--serviceaccount="+serviceAccount)
	return err
}

// DeleteClusterRole deletes a cluster role.
func (k *Kubectl) DeleteClusterRole(ctx context.Context, name string) error {
	_, err := k.run(ctx, "delete", "clusterrole", name)
	return err
}
