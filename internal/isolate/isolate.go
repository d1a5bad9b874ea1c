package isolate

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// Isolate hands out sandbox boxes. Box ids are unique among the boxes
// currently open through the same Isolate.
type Isolate struct {
	bin      string
	firstId  int
	maxBoxes int

	idsInUse mapset.Set[int]
	mutex    sync.Mutex
}

// New returns an Isolate that invokes bin and allocates box ids in
// [firstId, firstId+maxBoxes).
func New(bin string, firstId int, maxBoxes int) *Isolate {
	if bin == "" {
		bin = "isolate"
	}
	if maxBoxes <= 0 {
		maxBoxes = 1000
	}
	return &Isolate{
		bin:      bin,
		firstId:  firstId,
		maxBoxes: maxBoxes,
		idsInUse: mapset.NewThreadUnsafeSet[int](),
	}
}

func (i *Isolate) NewBox(ctx context.Context) (*Box, error) {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	id := i.firstId
	for i.idsInUse.Contains(id) {
		id++
	}
	if id >= i.firstId+i.maxBoxes {
		return nil, fmt.Errorf("all %d isolate boxes are in use", i.maxBoxes)
	}

	err := i.cleanupBox(ctx, id)
	if err != nil {
		return nil, err
	}

	path, err := i.initBox(ctx, id)
	if err != nil {
		return nil, err
	}

	i.idsInUse.Add(id)

	return newIsolateBox(i, id, path), nil
}

func (i *Isolate) eraseBox(boxId int) error {
	defer func() {
		i.mutex.Lock()
		i.idsInUse.Remove(boxId)
		i.mutex.Unlock()
	}()
	return i.cleanupBox(context.Background(), boxId)
}

func (i *Isolate) cleanupBox(ctx context.Context, boxId int) error {
	cleanCmd := exec.CommandContext(ctx, i.bin, "--cg", "--cleanup", fmt.Sprintf("--box-id=%d", boxId))
	out, err := cleanCmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to clean up box %d: %w: %s", boxId, err, out)
	}
	return nil
}

// initBox initializes a new box with the given id and returns the path to the box
func (i *Isolate) initBox(ctx context.Context, boxId int) (string, error) {
	initCmd := exec.CommandContext(ctx, i.bin, "--cg", "--init", fmt.Sprintf("--box-id=%d", boxId))
	cmdOutput, err := initCmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to init box %d: %w", boxId, err)
	}

	boxPath := strings.TrimSuffix(string(cmdOutput), "\n")
	return boxPath, nil
}
