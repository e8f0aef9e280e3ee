package main

var (
	AboutMe = []string{
		`I'm a passionate full-stack developer with expertise in building responsive and
	performant web applications. With a strong foundation in both front-end and back-end
	technologies, I enjoy creating seamless user experiences and solving complex problems.`,

		`My journey in web development began with HTML, CSS, and JavaScript, and has evolved to include
	modern frameworks like React, Typescript, Cypress, Node.js, Express and SQL. I believe in writing clean,
	maintainable code and continuously learning new technologies to stay at the forefront of web development.`,

		`When I'm not coding, you can find me exploring new technologies, contributing to open-source
	projects, or sharing my knowledge through blog posts and community engagement.`,
	}

	Highlights = []Highlight{
		{"Full-Stack Developer", "I'm passionate about creating interactive applications with clean, efficient code."},
		{"Professional Experience", "Over 1 years of experience developing full-stack applications for various industries."},
		{"Problem Solver", "I enjoy solving complex problems and turning ideas into reality with elegant solutions."},
		{"Continuous Learner", "Always exploring new technologies and methodologies to enhance my skill set."},
	}

	Experiences = []Experience{
		{
			Title:       "Full Stack Developer",
			Company:     "Learn To Start",
			Period:      "2025 - Present",
			Description: "Leading development of enterprise applications",
			Achievements: []string{
				"Deliver full-stack features by building frontend components and connecting them to backend endpoints",
				"Debug and resolve production issues across the stack to ensure smooth user experience",
				"Implement secure user authentication and handle session-based access across the application.",
				"Collaborate on feature planning and translate business needs into technical solutions.",
			},
			Tech: []string{"React", "Node.js", "Express", "SQL"},
		},
		{
			Title:       "React Developer",
			Company:     "Learn To Start",
			Period:      "2024 - 2025",
			Description: "Developed and optimized interactive user interfaces using React, with a focus on performance, usability, and clean architecture.",
			Achievements: []string{
				"Implemented real-time UI updates using WebSockets for a smoother user experience",
				"Refactored legacy components to modern React patterns, improving maintainability",
				"Reduced bundle size and load times by optimizing component structure and lazy loading",
				"Implemented reusable UI components to speed up development and maintain consistency",
			},
			Tech: []string{"React", "Redux"},
		},
		{
			Title:       "NOC",
			Company:     "Telkos LLC",
			Period:      "2023-2024",
			Description: "Monitored and maintained network systems to ensure high availability and performance for clients across various services.",
			Achievements: []string{
				"Monitored real-time network activity and resolved connectivity issues",
				"Escalated and tracked incidents to ensure timely resolution",
				"Collaborated with field technicians to diagnose and repair network faults",
				"Provided support for service outages and ensured minimal downtime",
			},
			Tech: []string{"Network Monitoring", "Customer Support"},
		},
	}

	Projects = []Project{
		{
			ID:          1,
			Title:       "Restaurant Platform",
			Description: "A full-stack restaurant platform with user authentication, menu management, and online ordering capabilities.",
			Tags:        []string{"react", "node", "typescript", "fullstack"},
			GitHub:      "https://github.com/triumfavdyli/Restaurant",
		},
		{
			ID:          2,
			Title:       "Task Management App",
			Description: "A real-time chat application with private messaging, group chats, and file sharing capabilities.",
			Tags:        []string{"react", "typescript", "express", "SQL"},
			GitHub:      "https://github.com/triumfavdyli/real-time-chat",
		},
		{
			ID:          4,
			Title:       "Music web player",
			Description: "A web-based music player application with playlist management and audio visualization features.",
			Tags:        []string{"react", "node", "SQL", "fullstack"},
			GitHub:      "https://github.com/triumfavdyli/music-app-frontend",
			Demo:        "https://soundwavex.netlify.app/",
		},
	}

	SkillGroups = []SkillGroup{
		{"Frontend", []Skill{{"HTML5", 95}, {"CSS3", 90}, {"JavaScript", 92}, {"TypeScript", 85}, {"React", 90}, {"Tailwind CSS", 88}, {"Redux", 80}, {"Next.js", 78}}},
		{"Backend", []Skill{{"Node.js", 85}, {"Express", 88}, {"RESTful APIs", 90}, {"GraphQL", 75}, {"Authentication", 82}, {"Serverless", 78}}},
		{"Database", []Skill{{"SQL", 85}, {"PostgreSQL", 82}, {"MongoDB", 80}, {"Redis", 70}, {"Firebase", 75}}},
		{"Tools & Others", []Skill{{"Git", 90}, {"Docker", 75}, {"CI/CD", 78}, {"Jest", 80}, {"Webpack", 75}, {"Agile/Scrum", 85}}},
	}
)
