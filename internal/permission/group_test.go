package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoIAM-Admin/GoIAM-Admin/internal/db/models"
)

func TestBuildGroupTree(t *testing.T) {
	perms := []models.Permission{
		{Name: "iam.users.view", Group: "iam.用户", DisplayName: "iam.用户.查看"},
		{Name: "iam.roles.view", Group: "iam.角色", DisplayName: "iam.角色.查看"},
	}

	out := BuildGroupTree(perms, map[string]string{"iam": "IAM"})
	require.Len(t, out, 1)

	assert.Equal(t, "iam", out[0].Key)
	assert.Equal(t, "IAM", out[0].Label)
	assert.Equal(t, 2, out[0].Count)
	require.Len(t, out[0].Children, 2)

	for _, c := range out[0].Children {
		assert.Equal(t, "iam", c.Module)
		assert.Equal(t, 1, c.Count)
	}

	assert.Equal(t, "iam.用户", out[0].Children[0].Key)
	assert.Equal(t, "用户", out[0].Children[0].Label)
}

func TestBuildGroupTreeModuleLabel(t *testing.T) {
	tests := []struct {
		name       string
		perms      []models.Permission
		configured map[string]string
		want       string
	}{
		{
			name:       "configured",
			perms:      []models.Permission{{Group: "iam.users", DisplayName: "iam.Users.View"}},
			configured: map[string]string{"iam": "Identity"},
			want:       "Identity",
		},
		{
			name:  "inferred before dash",
			perms: []models.Permission{{Group: "iam.users", DisplayName: "iam.IAM - 用户管理.查看"}},
			want:  "IAM",
		},
		{
			name:  "inferred first and second",
			perms: []models.Permission{{Group: "mdm.companies", DisplayName: "mdm.公司.查看"}},
			want:  "mdm.公司",
		},
		{
			name:  "capitalized key",
			perms: []models.Permission{{Group: "finance.invoices"}},
			want:  "Finance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := BuildGroupTree(tt.perms, tt.configured)
			require.Len(t, out, 1)
			assert.Equal(t, tt.want, out[0].Label)
		})
	}
}

func TestBuildGroupTreeOrdering(t *testing.T) {
	perms := []models.Permission{
		{Group: "mdm.b"},
		{Group: "iam.z"},
		{Group: "iam.a"},
		{Group: "iam.a"},
		{Group: "orphan"},
	}

	out := BuildGroupTree(perms, nil)
	require.Len(t, out, 3)

	assert.Equal(t, []string{"iam", "mdm", "orphan"}, []string{out[0].Key, out[1].Key, out[2].Key})

	assert.Equal(t, 3, out[0].Count)
	assert.Equal(t, "a", out[0].Children[0].Label)
	assert.Equal(t, 2, out[0].Children[0].Count)
	assert.Equal(t, "z", out[0].Children[1].Label)

	assert.Empty(t, out[2].Children)
	assert.Zero(t, out[2].Count)
}

func TestBuildGroupTreeEmpty(t *testing.T) {
	out := BuildGroupTree(nil, nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
