package s3

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/imageset/blobstore"
)

// mockDDBClient is an in-memory DynamoDB mock.
type mockDDBClient struct {
	mu    sync.RWMutex
	items map[string]map[string]ddbtypes.AttributeValue
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{
		items: make(map[string]map[string]ddbtypes.AttributeValue),
	}
}

func (m *mockDDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	baseURI := params.Item["base_uri"].(*ddbtypes.AttributeValueMemberS).Value
	version := params.Item["version"].(*ddbtypes.AttributeValueMemberN).Value
	key := baseURI + ":" + version

	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(version)" {
		if _, exists := m.items[key]; exists {
			return nil, &ddbtypes.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}

	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	baseURI := params.ExpressionAttributeValues[":uri"].(*ddbtypes.AttributeValueMemberS).Value

	var items []map[string]ddbtypes.AttributeValue
	for _, item := range m.items {
		if item["base_uri"].(*ddbtypes.AttributeValueMemberS).Value == baseURI {
			items = append(items, item)
		}
	}

	// Sort descending by version.
	for i := 0; i < len(items)-1; i++ {
		for j := i + 1; j < len(items); j++ {
			vi := items[i]["version"].(*ddbtypes.AttributeValueMemberN).Value
			vj := items[j]["version"].(*ddbtypes.AttributeValueMemberN).Value
			if vi < vj {
				items[i], items[j] = items[j], items[i]
			}
		}
	}

	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}

	return &dynamodb.QueryOutput{Items: items}, nil
}

func newTestCommitStore(ddb *mockDDBClient, baseURI string) *DDBCommitStore {
	s3Store := &Store{
		client: &mockS3Client{},
		bucket: "test-bucket",
		prefix: "snapshots/",
	}
	return NewDDBCommitStore(s3Store, ddb, "imageset-commits", baseURI)
}

func readCurrent(t *testing.T, store *DDBCommitStore) string {
	t.Helper()
	blob, err := store.Open(context.Background(), CurrentName)
	require.NoError(t, err)
	defer func() { _ = blob.Close() }()

	buf := make([]byte, 100)
	n, _ := blob.ReadAt(buf, 0)
	return string(buf[:n])
}

func TestDDBCommitStore_FirstCommit(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store := newTestCommitStore(ddb, "s3://test-bucket/snapshots/")

	err := store.Put(ctx, CurrentName, []byte("experiment-00001.snap"))
	require.NoError(t, err)

	assert.Equal(t, "experiment-00001.snap", readCurrent(t, store))
}

func TestDDBCommitStore_MultipleCommits(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store := newTestCommitStore(ddb, "s3://test-bucket/snapshots/")

	for i := 1; i <= 3; i++ {
		err := store.Put(ctx, CurrentName, []byte(fmt.Sprintf("experiment-%05d.snap", i)))
		require.NoError(t, err)
	}

	assert.Equal(t, "experiment-00003.snap", readCurrent(t, store))
}

func TestDDBCommitStore_ConcurrentCommits(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store := newTestCommitStore(ddb, "s3://test-bucket/snapshots/")

	require.NoError(t, store.Put(ctx, CurrentName, []byte("experiment-00001.snap")))

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	conflicts := 0

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			err := store.Put(ctx, CurrentName, []byte(fmt.Sprintf("experiment-%05d.snap", id+2)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrConcurrentCommit):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}

	wg.Wait()
	assert.Greater(t, successes, 0, "at least one writer should succeed")
}

func TestDDBCommitStore_NotFoundBeforeCommit(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store := newTestCommitStore(ddb, "s3://test-bucket/snapshots/")

	_, err := store.Open(ctx, CurrentName)
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestDDBCommitStore_IsolatedNamespaces(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()

	store1 := newTestCommitStore(ddb, "s3://bucket-a/snapshots/")
	store2 := newTestCommitStore(ddb, "s3://bucket-b/snapshots/")

	require.NoError(t, store1.Put(ctx, CurrentName, []byte("experiment-a.snap")))
	require.NoError(t, store2.Put(ctx, CurrentName, []byte("experiment-b.snap")))

	assert.Equal(t, "experiment-a.snap", readCurrent(t, store1))
	assert.Equal(t, "experiment-b.snap", readCurrent(t, store2))
}
