package workflow

// ChecksJobID is the job that gates every push.
const ChecksJobID = "test-lint"

// Checks returns the canonical definition of the push-triggered checks
// workflow. The file committed under .github/workflows is generated from
// this value and a test keeps the two in sync.
//
// Step order is load-bearing: the database wait runs inside the same
// container invocation as the tests and must come first.
func Checks() *Workflow {
	return &Workflow{
		Name: "Checks",
		On: Trigger{
			Push: &PushTrigger{Branches: []string{"**"}},
		},
		Jobs: map[string]Job{
			ChecksJobID: {
				Name:   "Test and Lint",
				RunsOn: "ubuntu-24.04",
				Steps: []Step{
					{
						Name: "Checkout",
						Uses: "actions/checkout@v4",
					},
					{
						Name: "Set up Docker Buildx",
						Uses: "docker/setup-buildx-action@v3",
					},
					{
						Name: "Install Docker Compose",
						Run: `sudo curl -L "https://github.com/docker/compose/releases/download/v2.24.6/docker-compose-linux-x86_64" -o /usr/local/bin/docker-compose` + "\n" +
							`sudo chmod +x /usr/local/bin/docker-compose` + "\n",
					},
					{
						Name: "Login to Docker Hub",
						Uses: "docker/login-action@v3",
						With: map[string]string{
							"username": "${{ secrets.DOCKERHUB_USER }}",
							"password": "${{ secrets.DOCKERHUB_TOKEN }}",
						},
					},
					{
						Name: "Test",
						Run:  `docker-compose run --rm app sh -c "go run ./cmd/souschef waitdb && go test ./..."`,
					},
					{
						Name: "Lint",
						Run:  `docker-compose run --rm app sh -c "golangci-lint run --timeout 5m"`,
					},
				},
			},
		},
	}
}
