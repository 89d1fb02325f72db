package applier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	autoscalingv1 "k8s.io/api/autoscaling/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/scalemesh/coordinator/internal/logger"
	"github.com/scalemesh/coordinator/pkg/models"
)

// KubernetesApplier scales Deployments through the Scale subresource.
// Service names map 1:1 to Deployment names within the configured
// namespace.
type KubernetesApplier struct {
	clientset kubernetes.Interface
	namespace string
	targets   map[string]float64
	defTarget float64
	mu        sync.Mutex
}

type KubernetesConfig struct {
	Kubeconfig string // empty means in-cluster
	Namespace  string
	// UtilizationTargets overrides the default per service.
	UtilizationTargets map[string]float64
	DefaultUtilization float64
}

func NewKubernetesApplier(cfg KubernetesConfig) (*KubernetesApplier, error) {
	var (
		restCfg *rest.Config
		err     error
	)
	if cfg.Kubeconfig != "" {
		restCfg, err = clientcmd.BuildConfigFromFlags("", cfg.Kubeconfig)
	} else {
		restCfg, err = rest.InClusterConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build kubernetes config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	return newKubernetesApplier(clientset, cfg), nil
}

func newKubernetesApplier(clientset kubernetes.Interface, cfg KubernetesConfig) *KubernetesApplier {
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "default"
	}
	defTarget := cfg.DefaultUtilization
	if defTarget <= 0 || defTarget > 1 {
		defTarget = defaultUtilizationTarget
	}
	targets := cfg.UtilizationTargets
	if targets == nil {
		targets = make(map[string]float64)
	}

	return &KubernetesApplier{
		clientset: clientset,
		namespace: namespace,
		targets:   targets,
		defTarget: defTarget,
	}
}

func (k *KubernetesApplier) CurrentReplicas(ctx context.Context, service string) (int, error) {
	scale, err := k.clientset.AppsV1().Deployments(k.namespace).GetScale(
		ctx, service, metav1.GetOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to get scale for %s: %w", service, err)
	}
	return int(scale.Spec.Replicas), nil
}

func (k *KubernetesApplier) UtilizationTarget(ctx context.Context, service string) (float64, error) {
	if t, ok := k.targets[service]; ok {
		return t, nil
	}
	return k.defTarget, nil
}

func (k *KubernetesApplier) ApplyReplicas(ctx context.Context, service string, desired int) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	deployments := k.clientset.AppsV1().Deployments(k.namespace)

	scale, err := deployments.GetScale(ctx, service, metav1.GetOptions{})
	if err != nil {
		return k.wrapError(err, service)
	}

	if scale.Spec.Replicas == int32(desired) {
		logger.WithService(service).Debugf("Already at %d replicas", desired)
		return nil
	}

	previous := scale.Spec.Replicas
	update := &autoscalingv1.Scale{
		ObjectMeta: metav1.ObjectMeta{
			Name:            scale.Name,
			Namespace:       scale.Namespace,
			ResourceVersion: scale.ResourceVersion,
		},
		Spec: autoscalingv1.ScaleSpec{Replicas: int32(desired)},
	}

	if _, err := deployments.UpdateScale(ctx, service, update, metav1.UpdateOptions{}); err != nil {
		return k.wrapError(err, service)
	}

	logger.WithService(service).Infof("Scaled deployment %d -> %d replicas",
		previous, desired)
	return nil
}

func (k *KubernetesApplier) wrapError(err error, service string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", models.ErrApplyTimeout, service)
	}
	return fmt.Errorf("%w: %s: %v", models.ErrApplyRejected, service, err)
}

func (k *KubernetesApplier) Close() error {
	return nil
}
